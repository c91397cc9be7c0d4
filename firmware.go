package hcdload

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// recordHeaderSize is the size of the opcode and length fields of an HCD record.
const recordHeaderSize = 3

// Firmware reads the commands of an HCD image one record at a time.
// It is forward only: once Next has returned an error, including io.EOF,
// every following call returns the same error.
type Firmware struct {
	r      *bufio.Reader
	offset int64
	err    error
}

// NewFirmware returns a Firmware reading records from r.
func NewFirmware(r io.Reader) *Firmware {
	return &Firmware{r: bufio.NewReader(r)}
}

// Offset returns the number of bytes consumed from the image so far.
func (f *Firmware) Offset() int64 {
	return f.offset
}

// Next returns the next command of the image. It returns io.EOF when fewer
// than three header bytes remain.
func (f *Firmware) Next() (Command, error) {
	if f.err != nil {
		return Command{}, f.err
	}
	cmd, err := f.next()
	if err != nil {
		f.err = err
	}
	return cmd, err
}

func (f *Firmware) next() (Command, error) {
	start := f.offset

	var header [recordHeaderSize]byte
	n, err := io.ReadFull(f.r, header[:])
	f.offset += int64(n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return Command{}, io.EOF
	}
	if err != nil {
		return Command{}, errors.Wrapf(err, "failed to read record header at offset %d", start)
	}

	opcode := binary.LittleEndian.Uint16(header[:])
	length := int(header[2])

	payload := make([]byte, length)
	n, err = io.ReadFull(f.r, payload)
	f.offset += int64(n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return Command{}, &TruncatedFirmwareError{
			Opcode:    opcode,
			Offset:    start,
			Declared:  length,
			Available: n,
		}
	}
	if err != nil {
		return Command{}, errors.Wrapf(err, "failed to read record payload at offset %d", start)
	}

	cmd, err := NewCommand(opcode, payload)
	if err != nil {
		var unknown *UnknownOpcodeError
		if errors.As(err, &unknown) {
			unknown.Offset = start
		}
		return Command{}, err
	}
	pkgLog.Debugf("parsed %v record at offset %d, %d payload bytes", OpcodeName(opcode), start, length)
	return cmd, nil
}

// Each calls fn for every remaining command of the image. It stops at the end
// of the image, returning nil, or at the first error from the image or fn.
func (f *Firmware) Each(fn func(Command) error) error {
	for {
		cmd, err := f.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(cmd); err != nil {
			return err
		}
	}
}
