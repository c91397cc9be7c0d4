package hcdload

import (
	"io"
	"time"

	"github.com/pkg/errors"
)

// Default pacing used by the Uploader.
const (
	DefaultCommandDelay  = 10 * time.Millisecond
	DefaultMismatchDelay = time.Second
)

// Options holds upload options.
type Options struct {
	// Delay after every accepted command, so as not to overrun the controller.
	CommandDelay time.Duration `yaml:"command_delay"`
	// Pause after a command received an unexpected response.
	MismatchDelay time.Duration `yaml:"mismatch_delay"`
	// If true, an unexpected response while streaming the image aborts the upload.
	// Otherwise it is logged and the upload carries on with the next command.
	AbortOnMismatch bool `yaml:"abort_on_mismatch"`
	// Progress, if set, is called after every command sent from the image.
	Progress func(Progress) `yaml:"-"`
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		CommandDelay:  DefaultCommandDelay,
		MismatchDelay: DefaultMismatchDelay,
	}
}

// Progress reports how far an upload has got.
type Progress struct {
	// Commands sent from the image, including those that got an unexpected response.
	Sent int
	// Commands that got an unexpected response.
	Mismatched int
	// Bytes of the image consumed so far.
	Offset int64
	// The command that has just been sent.
	Command Command
}

// Uploader loads HCD images onto a controller.
type Uploader struct {
	transport io.ReadWriter
	options   Options
	sleep     func(time.Duration)
}

// NewUploader creates an uploader that talks to the controller through t.
func NewUploader(t io.ReadWriter, options Options) *Uploader {
	u := new(Uploader)

	u.transport = NewTracingTransport(t)
	u.options = options
	u.sleep = time.Sleep

	return u
}

// Reset sends the HCI Reset command. Any failure, including an unexpected
// response, is returned.
func (u *Uploader) Reset() error {
	if err := NewResetCommand().Send(u.transport); err != nil {
		return errors.Wrap(err, "reset failed")
	}
	pkgLog.Infof("controller reset")
	return nil
}

// Upload resets the controller and sends every command of the HCD image read from fw.
//
// The reset must succeed for the upload to start. Commands from the image that get
// an unexpected response are logged and skipped after a pause, unless AbortOnMismatch
// is set. Errors reading the image and transport errors abort the upload.
func (u *Uploader) Upload(fw io.Reader) error {
	if err := u.Reset(); err != nil {
		return err
	}

	firmware := NewFirmware(fw)
	progress := Progress{}
	return firmware.Each(func(cmd Command) error {
		err := cmd.Send(u.transport)
		progress.Sent++
		progress.Offset = firmware.Offset()
		progress.Command = cmd

		var mismatch *UnexpectedResponseError
		switch {
		case err == nil:
			pkgLog.Infof("sent %v", cmd.Describe())
			u.report(progress)
			u.sleep(u.options.CommandDelay)
			return nil

		case errors.As(err, &mismatch):
			progress.Mismatched++
			pkgLog.Errorf("%v: %v", err, cmd.Describe())
			u.report(progress)
			if u.options.AbortOnMismatch {
				return errors.Wrapf(err, "%v failed", cmd.Describe())
			}
			pkgLog.Warnf("pausing %v before the next command", u.options.MismatchDelay)
			u.sleep(u.options.MismatchDelay)
			return nil

		default:
			return err
		}
	})
}

func (u *Uploader) report(p Progress) {
	if u.options.Progress != nil {
		u.options.Progress(p)
	}
}
