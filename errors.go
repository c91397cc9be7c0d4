package hcdload

import (
	"encoding/hex"
	"fmt"
)

// UnexpectedResponseError indicates that the controller did not answer a command
// with the expected command complete event.
type UnexpectedResponseError struct {
	Opcode   uint16
	Expected []byte
	Actual   []byte
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("expected %s but received %s when sending %04X",
		hex.EncodeToString(e.Expected), hex.EncodeToString(e.Actual), e.Opcode)
}

// TruncatedFirmwareError indicates that the firmware image ended in the middle of a record.
type TruncatedFirmwareError struct {
	Opcode    uint16
	Offset    int64
	Declared  int
	Available int
}

func (e *TruncatedFirmwareError) Error() string {
	return fmt.Sprintf("truncated record %04X at offset %d: declared %d payload bytes, %d available",
		e.Opcode, e.Offset, e.Declared, e.Available)
}

// UnknownOpcodeError indicates a command whose expected response is not known.
// Offset is the position of the record in the firmware image, or -1 when the
// command did not come from an image.
type UnknownOpcodeError struct {
	Opcode uint16
	Offset int64
}

func (e *UnknownOpcodeError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("unknown opcode %04X", e.Opcode)
	}
	return fmt.Sprintf("unknown opcode %04X at offset %d", e.Opcode, e.Offset)
}

// PayloadTooLongError indicates a payload that does not fit the one byte length field.
type PayloadTooLongError struct {
	Opcode uint16
	Length int
}

func (e *PayloadTooLongError) Error() string {
	return fmt.Sprintf("payload of %d bytes for %04X exceeds %d bytes", e.Length, e.Opcode, MaxPayloadLength)
}
