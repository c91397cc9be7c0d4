package hcdload

import (
	"bytes"
	"io"
)

// mockController answers every written frame with the next scripted response.
// Once the script runs out it answers nothing, so reads time out with io.EOF.
type mockController struct {
	readBuf   bytes.Buffer
	written   [][]byte
	responses [][]byte
	readErr   error
	writeErr  error

	// If set, reads with nothing to answer return (0, nil) instead of io.EOF,
	// as tarm/serial does on Windows when the read timeout expires.
	silentTimeout bool
}

func newMockController(responses ...[]byte) *mockController {
	return &mockController{responses: responses}
}

func (m *mockController) Write(p []byte) (int, error) {
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	m.written = append(m.written, append([]byte(nil), p...))
	if len(m.responses) > 0 {
		m.readBuf.Write(m.responses[0])
		m.responses = m.responses[1:]
	}
	return len(p), nil
}

func (m *mockController) Read(p []byte) (int, error) {
	if m.readErr != nil {
		return 0, m.readErr
	}
	if m.readBuf.Len() == 0 {
		if m.silentTimeout {
			return 0, nil
		}
		return 0, io.EOF
	}
	return m.readBuf.Read(p)
}

func record(opcode uint16, payload ...byte) []byte {
	return append([]byte{byte(opcode), byte(opcode >> 8), byte(len(payload))}, payload...)
}

func image(records ...[]byte) []byte {
	return bytes.Join(records, nil)
}

var (
	resetResponse     = []byte{0x04, 0x0E, 0x04, 0x01, 0x03, 0x0C, 0x00}
	writeRAMResponse  = []byte{0x04, 0x0E, 0x04, 0x01, 0x4C, 0xFC, 0x00}
	launchRAMResponse = []byte{0x04, 0x0E, 0x04, 0x01, 0x4E, 0xFC, 0x00}
)
