package hcdload

import (
	"io"

	"github.com/marcinbor85/gohex"
	"github.com/pkg/errors"
)

// DefaultHexLineLength is the number of data bytes per Intel HEX record written by ExportHex.
const DefaultHexLineLength = 16

// LoadMemory replays the HCD image read from fw without a controller and returns
// the RAM contents it would write. The launch address, if any, becomes the start address.
func LoadMemory(fw io.Reader) (*gohex.Memory, error) {
	mem := gohex.NewMemory()
	err := NewFirmware(fw).Each(func(cmd Command) error {
		addr, ok := cmd.Address()
		switch cmd.Opcode() {
		case OpcodeWriteRAM:
			if !ok {
				return errors.Errorf("%v has no address", cmd.Describe())
			}
			data := cmd.Payload()[4:]
			if len(data) == 0 {
				return nil
			}
			if err := mem.AddBinary(addr, data); err != nil {
				return errors.Wrapf(err, "failed to add segment at %X", addr)
			}
		case OpcodeLaunchRAM:
			if ok {
				mem.SetStartAddress(addr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mem, nil
}

// ExportHex writes the RAM contents of the HCD image read from fw to w in Intel HEX format.
func ExportHex(w io.Writer, fw io.Reader, lineLength int) error {
	if lineLength <= 0 {
		lineLength = DefaultHexLineLength
	}
	if lineLength > 0xFF {
		return errors.Errorf("invalid hex line length %d", lineLength)
	}
	mem, err := LoadMemory(fw)
	if err != nil {
		return err
	}
	for _, segment := range mem.GetDataSegments() {
		pkgLog.Debugf("segment at %X length %v", segment.Address, len(segment.Data))
	}
	return mem.DumpIntelHex(w, byte(lineLength))
}
