package hcdload

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, fw *Firmware) ([]Command, error) {
	t.Helper()
	var cmds []Command
	err := fw.Each(func(c Command) error {
		cmds = append(cmds, c)
		return nil
	})
	return cmds, err
}

func TestFirmwareRoundTrip(t *testing.T) {
	records := [][]byte{
		record(OpcodeWriteRAM, 0x00, 0x00, 0x20, 0x00, 0x01, 0x02, 0x03),
		record(OpcodeWriteRAM, append([]byte{0x10, 0x00, 0x20, 0x00}, bytes.Repeat([]byte{0x5A}, 251)...)...),
		record(OpcodeWriteRAM),
		record(OpcodeLaunchRAM, 0xFF, 0xFF, 0xFF, 0xFF),
	}

	// One byte reads make sure records are reassembled from partial reads.
	fw := NewFirmware(iotest.OneByteReader(bytes.NewReader(image(records...))))
	cmds, err := readAll(t, fw)
	require.NoError(t, err)
	require.Len(t, cmds, len(records))

	for i, cmd := range cmds {
		assert.Equal(t, records[i], cmd.Serialize()[1:], "record %d", i)
	}
	assert.Equal(t, int64(len(image(records...))), fw.Offset())
}

func TestFirmwareEnd(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		count int
	}{
		{name: "empty", data: nil},
		{name: "partial header", data: []byte{0x4C, 0xFC}},
		{name: "trailing partial header", data: append(record(OpcodeLaunchRAM, 0xFF, 0xFF, 0xFF, 0xFF), 0x4C), count: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fw := NewFirmware(bytes.NewReader(tt.data))
			cmds, err := readAll(t, fw)
			require.NoError(t, err)
			assert.Len(t, cmds, tt.count)

			_, err = fw.Next()
			assert.Equal(t, io.EOF, err)
		})
	}
}

func TestFirmwareTruncated(t *testing.T) {
	data := image(
		record(OpcodeWriteRAM, 0x00, 0x00, 0x20, 0x00, 0x01),
		[]byte{0x4C, 0xFC, 0x08, 0x00, 0x00, 0x20},
	)
	fw := NewFirmware(bytes.NewReader(data))

	_, err := fw.Next()
	require.NoError(t, err)

	cmd, err := fw.Next()
	var truncated *TruncatedFirmwareError
	require.True(t, errors.As(err, &truncated))
	assert.Equal(t, Command{}, cmd)
	assert.Equal(t, uint16(OpcodeWriteRAM), truncated.Opcode)
	assert.Equal(t, int64(8), truncated.Offset)
	assert.Equal(t, 8, truncated.Declared)
	assert.Equal(t, 3, truncated.Available)

	// The stream does not recover.
	_, again := fw.Next()
	assert.Equal(t, err, again)
}

func TestFirmwareUnknownOpcode(t *testing.T) {
	data := image(
		record(OpcodeLaunchRAM, 0xFF, 0xFF, 0xFF, 0xFF),
		record(0x1234, 0x01, 0x02),
		record(OpcodeLaunchRAM, 0xFF, 0xFF, 0xFF, 0xFF),
	)
	fw := NewFirmware(bytes.NewReader(data))

	cmds, err := readAll(t, fw)
	var unknown *UnknownOpcodeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, uint16(0x1234), unknown.Opcode)
	assert.Equal(t, int64(7), unknown.Offset)
	assert.Equal(t, "unknown opcode 1234 at offset 7", err.Error())
	assert.Len(t, cmds, 1)
}

func TestFirmwareReadError(t *testing.T) {
	ioErr := errors.New("disk on fire")
	fw := NewFirmware(iotest.ErrReader(ioErr))

	_, err := fw.Next()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ioErr))
}

func TestFirmwareEachStopsOnCallbackError(t *testing.T) {
	data := image(
		record(OpcodeLaunchRAM, 0xFF, 0xFF, 0xFF, 0xFF),
		record(OpcodeLaunchRAM, 0xFF, 0xFF, 0xFF, 0xFF),
	)
	stop := errors.New("stop")
	calls := 0
	err := NewFirmware(bytes.NewReader(data)).Each(func(Command) error {
		calls++
		return stop
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 1, calls)
}
