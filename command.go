// Package hcdload loads vendor HCD firmware patches into the RAM of a Bluetooth
// controller over an HCI UART transport.
//
// An HCD file is a raw sequence of HCI commands. The package contains three main
// components: Command, Firmware and Uploader. Command models a single HCI command
// together with the command complete event the controller must answer with.
// Firmware reads commands one at a time from an HCD image. Uploader resets the
// controller and replays every command of the image over a transport.
//
// Also included is a command line tool, found in the cmd/hcdload directory,
// that serves as both an example on how to use the library and a fully functional
// host program to load HCD files onto controllers attached to a serial port.
package hcdload

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// HCI command opcodes found in HCD files.
const (
	OpcodeReset     = 0x0C03
	OpcodeWriteRAM  = 0xFC4C
	OpcodeLaunchRAM = 0xFC4E
)

const (
	// packetTypeCommand is the HCI UART packet indicator for commands.
	packetTypeCommand = 0x01

	// MaxPayloadLength is the largest payload the one byte length field can carry.
	MaxPayloadLength = 0xFF
)

// expectedResponses holds the command complete event each opcode must be answered with:
// event code, parameter length, number of packets, opcode and a zero status.
var expectedResponses = map[uint16][]byte{
	OpcodeReset:     {0x04, 0x0E, 0x04, 0x01, 0x03, 0x0C, 0x00},
	OpcodeWriteRAM:  {0x04, 0x0E, 0x04, 0x01, 0x4C, 0xFC, 0x00},
	OpcodeLaunchRAM: {0x04, 0x0E, 0x04, 0x01, 0x4E, 0xFC, 0x00},
}

// ExpectedResponse returns a copy of the response expected for opcode.
func ExpectedResponse(opcode uint16) ([]byte, bool) {
	resp, ok := expectedResponses[opcode]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), resp...), true
}

// OpcodeName returns the string representation of an opcode.
func OpcodeName(opcode uint16) string {
	switch opcode {
	case OpcodeReset:
		return "reset"
	case OpcodeWriteRAM:
		return "write ram"
	case OpcodeLaunchRAM:
		return "launch ram"
	default:
		return fmt.Sprintf("unknown opcode %04X", opcode)
	}
}

// Command represents an HCI command and the response it expects.
type Command struct {
	opcode   uint16
	payload  []byte
	expected []byte
}

// NewCommand returns the representation of the command with the given opcode and payload.
func NewCommand(opcode uint16, payload []byte) (Command, error) {
	if len(payload) > MaxPayloadLength {
		return Command{}, &PayloadTooLongError{Opcode: opcode, Length: len(payload)}
	}
	expected, ok := ExpectedResponse(opcode)
	if !ok {
		return Command{}, &UnknownOpcodeError{Opcode: opcode, Offset: -1}
	}
	c := Command{
		opcode:   opcode,
		payload:  append([]byte(nil), payload...),
		expected: expected,
	}
	return c, nil
}

// NewResetCommand returns the representation of the HCI Reset command.
func NewResetCommand() Command {
	c, _ := NewCommand(OpcodeReset, nil)
	return c
}

// Opcode returns the command opcode.
func (c Command) Opcode() uint16 {
	return c.opcode
}

// Payload returns a copy of the command parameters.
func (c Command) Payload() []byte {
	return append([]byte(nil), c.payload...)
}

// Expected returns a copy of the expected response.
func (c Command) Expected() []byte {
	return append([]byte(nil), c.expected...)
}

// Serialize returns the wire frame for the command.
func (c Command) Serialize() []byte {
	b := make([]byte, 4, 4+len(c.payload))
	b[0] = packetTypeCommand
	binary.LittleEndian.PutUint16(b[1:], c.opcode)
	b[3] = byte(len(c.payload))
	return append(b, c.payload...)
}

// Address returns the RAM address carried in the first four payload bytes.
func (c Command) Address() (uint32, bool) {
	if len(c.payload) < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(c.payload), true
}

// Describe returns a human readable summary of the command.
func (c Command) Describe() string {
	switch c.opcode {
	case OpcodeWriteRAM, OpcodeLaunchRAM:
		addr := "unknown address"
		if a, ok := c.Address(); ok {
			addr = fmt.Sprintf("0x%08X", a)
		}
		if c.opcode == OpcodeLaunchRAM {
			return fmt.Sprintf("launch ram at %s", addr)
		}
		return fmt.Sprintf("write ram at %s: %s", addr, hex.EncodeToString(c.payload))
	case OpcodeReset:
		return "reset"
	default:
		return OpcodeName(c.opcode)
	}
}

func (c Command) String() string {
	return c.Describe()
}

// Send writes the command to t and checks that the controller answers with the
// expected response. A response that differs from the expected one, including a
// short read caused by a read timeout, results in an *UnexpectedResponseError.
func (c Command) Send(t io.ReadWriter) error {
	if _, err := t.Write(c.Serialize()); err != nil {
		return errors.Wrapf(err, "failed to send %v", OpcodeName(c.opcode))
	}

	resp, err := recv(t, len(c.expected))
	if err != nil {
		return errors.Wrapf(err, "failed to read %v response", OpcodeName(c.opcode))
	}

	if !bytes.Equal(resp, c.expected) {
		return &UnexpectedResponseError{
			Opcode:   c.opcode,
			Expected: c.Expected(),
			Actual:   resp,
		}
	}
	return nil
}

// recv reads up to count bytes from r. It stops early, without an error, when a
// read returns no data or io.EOF, which is how serial ports report a read timeout.
func recv(r io.Reader, count int) ([]byte, error) {
	resp := make([]byte, 0, count)
	buf := make([]byte, count)
	for len(resp) < count {
		n, err := r.Read(buf[:count-len(resp)])
		resp = append(resp, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
	}
	return resp, nil
}
