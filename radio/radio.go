package radio

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/sendfsk/config"
	"github.com/jrwynneiii/sendfsk/fsk"
)

var (
	ErrStopped       = errors.New("transmitter stopped")
	ErrUnknownDriver = errors.New("unknown radio driver")
	ErrBufferSize    = errors.New("symbol buffer larger than burst")

	// ErrDriverUnavailable means the driver was left out of this build.
	ErrDriverUnavailable = errors.New("radio driver not built in")
)

// Burst is a transmitter tuned once at construction. SetSymbols blocks until
// the burst has been emitted. Stop releases the hardware and may be called
// more than once.
type Burst interface {
	SetSymbols(symbols []byte) error
	Stop() error
}

// Tuning is fixed for the lifetime of a Burst.
type Tuning struct {
	Frequency  int64
	SymbolRate int
	Deviation  int
	Channel    int
	BufferSize int
}

var Drivers = []string{"soapy", "gpio", "iqfile", "dummy"}

// Open creates the Burst selected by conf.Radio.Driver.
func Open(conf config.Config, tuning Tuning, logger *log.Logger) (Burst, error) {
	if logger == nil {
		logger = log.Default()
	}
	driver := strings.ToLower(conf.Radio.Driver)
	logger.Debugf("Opening %s transmitter: %+v", driver, tuning)

	var (
		burst Burst
		err   error
	)
	switch driver {
	case "soapy":
		burst, err = openSoapy(conf.Radio, tuning, logger)
	case "gpio":
		var g *GPIO
		if g, err = NewGPIO(conf.GPIO, tuning, logger); err == nil {
			burst = g
		}
	case "iqfile":
		var f *IQFile
		if f, err = NewIQFile(conf.IQFile.Path, conf.Radio, tuning, logger); err == nil {
			burst = f
		}
	case "dummy":
		burst = NewDummy(tuning, logger)
	default:
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownDriver, conf.Radio.Driver, strings.Join(Drivers, ", "))
	}
	if err != nil {
		return nil, err
	}
	return burst, nil
}

func newModulator(conf config.RadioConf, tuning Tuning) (*fsk.Modulator, error) {
	return fsk.NewModulator(conf.SampleRate, float64(tuning.SymbolRate), float64(tuning.Deviation), conf.Amplitude, conf.Filter)
}

// session holds what every backend checks before emitting.
type session struct {
	tuning  Tuning
	stopped bool
}

func (s *session) check(symbols []byte) error {
	if s.stopped {
		return ErrStopped
	}
	if len(symbols) > s.tuning.BufferSize {
		return fmt.Errorf("%w: %d symbols, burst holds %d", ErrBufferSize, len(symbols), s.tuning.BufferSize)
	}
	return nil
}

// iqCache keeps the samples of the last burst, which is usually resent as is.
type iqCache struct {
	symbols []byte
	iq      []complex64
}

func (c *iqCache) modulate(mod *fsk.Modulator, symbols []byte) []complex64 {
	if c.iq != nil && bytes.Equal(c.symbols, symbols) {
		return c.iq
	}
	c.symbols = append(c.symbols[:0], symbols...)
	c.iq = mod.Modulate(symbols)
	return c.iq
}

// streamWriter writes samples to a TX stream and reports how many it took.
// endBurst is set on the call carrying the last samples of the burst.
type streamWriter func(samples []complex64, endBurst bool) (int, error)

// writeBurst pushes iq through write in chunks of at most chunk samples,
// resubmitting whatever a short write leaves over.
func writeBurst(iq []complex64, chunk int, write streamWriter) error {
	for len(iq) > 0 {
		n := min(len(iq), chunk)
		written, err := write(iq[:n], n == len(iq))
		if err != nil {
			return err
		}
		if written <= 0 {
			return errors.New("TX stream accepted no samples")
		}
		iq = iq[min(written, n):]
	}
	return nil
}
