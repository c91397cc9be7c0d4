package hcdload

import (
	"time"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
	"go.bug.st/serial/enumerator"
)

// Serial defaults used by controllers in their HCI UART bootstrap mode.
const (
	DefaultBaud        = 115200
	DefaultReadTimeout = time.Second
)

// SerialConfig holds the serial port settings.
type SerialConfig struct {
	Port        string        `yaml:"port"`
	Baud        int           `yaml:"baud"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// SerialPort is a transport over a serial port. Reads block until data arrives
// or the read timeout expires, in which case io.EOF is returned.
type SerialPort struct {
	port *serial.Port
}

// OpenSerial opens the serial port described by cfg.
func OpenSerial(cfg SerialConfig) (*SerialPort, error) {
	if cfg.Port == "" {
		return nil, errors.New("no serial port specified")
	}
	c := &serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	}
	if c.Baud == 0 {
		c.Baud = DefaultBaud
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}

	port, err := serial.OpenPort(c)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %v", cfg.Port)
	}
	// On Linux with USB serial ports, in order for flush to work properly
	// we need to delay a little before flushing to make sure that any
	// received data has made its way up the driver stack.
	time.Sleep(time.Millisecond * 100)
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, errors.Wrapf(err, "failed to flush %v", cfg.Port)
	}
	pkgLog.Debugf("opened %v at %d baud", c.Name, c.Baud)
	return &SerialPort{port: port}, nil
}

func (s *SerialPort) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialPort) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// Close releases the serial port.
func (s *SerialPort) Close() error {
	return s.port.Close()
}

// PortInfo describes a serial port present on the host.
type PortInfo struct {
	Name         string
	USB          bool
	VID, PID     string
	SerialNumber string
	Product      string
}

// ListPorts returns the serial ports present on the host.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, errors.Wrap(err, "failed to enumerate serial ports")
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:         d.Name,
			USB:          d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	return ports, nil
}
