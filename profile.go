package hcdload

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Profile holds the settings for a controller, typically loaded from a YAML file:
//
//	serial:
//	  port: /dev/ttyUSB0
//	  baud: 115200
//	  read_timeout: 1s
//	upload:
//	  command_delay: 10ms
//	  mismatch_delay: 1s
//	  abort_on_mismatch: false
type Profile struct {
	Serial SerialConfig `yaml:"serial"`
	Upload Options      `yaml:"upload"`
}

// DefaultProfile returns the profile used when no profile file is given.
func DefaultProfile() Profile {
	return Profile{
		Serial: SerialConfig{
			Baud:        DefaultBaud,
			ReadTimeout: DefaultReadTimeout,
		},
		Upload: DefaultOptions(),
	}
}

// LoadProfile parses a YAML profile from r. Settings missing from the file keep
// their default values.
func LoadProfile(r io.Reader) (Profile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Profile{}, errors.Wrap(err, "failed to read profile")
	}
	p := DefaultProfile()
	if err := yaml.UnmarshalStrict(data, &p); err != nil {
		return Profile{}, errors.Wrap(err, "failed to parse profile")
	}
	if p.Serial.Baud <= 0 {
		return Profile{}, errors.Errorf("invalid baud rate %d", p.Serial.Baud)
	}
	if p.Serial.ReadTimeout <= 0 {
		return Profile{}, errors.Errorf("invalid read timeout %v", p.Serial.ReadTimeout)
	}
	if p.Upload.CommandDelay < 0 || p.Upload.MismatchDelay < 0 {
		return Profile{}, errors.New("upload delays must not be negative")
	}
	return p, nil
}
