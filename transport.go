package hcdload

import (
	"encoding/hex"
	"io"
)

// tracingTransport logs the raw bytes going through a transport.
type tracingTransport struct {
	rw io.ReadWriter
}

// NewTracingTransport returns a transport that passes reads and writes through
// to rw, logging the raw bytes at debug level.
func NewTracingTransport(rw io.ReadWriter) io.ReadWriter {
	return &tracingTransport{rw: rw}
}

func (t *tracingTransport) Read(p []byte) (int, error) {
	pkgLog.Debugf("reading %d", len(p))
	n, err := t.rw.Read(p)
	if n > 0 {
		pkgLog.Debugf("read %s", hex.EncodeToString(p[:n]))
	}
	return n, err
}

func (t *tracingTransport) Write(p []byte) (int, error) {
	pkgLog.Debugf("writing %s", hex.EncodeToString(p))
	return t.rw.Write(p)
}
