package radio

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/sendfsk/fsk"
)

// outputLine is the part of a requested GPIO line the keyer drives.
type outputLine interface {
	SetValue(value int) error
	Close() error
}

// GPIO keys the data input of an external FSK modulator, one line level per
// symbol. The modulator owns carrier, deviation and channel.
type GPIO struct {
	session
	log   *log.Logger
	line  outputLine
	sleep func(time.Duration)
}

func newGPIO(line outputLine, tuning Tuning, logger *log.Logger) *GPIO {
	logger.Debugf("GPIO keyer: %d baud, frequency %d, deviation %d and channel %d are set on the modulator",
		tuning.SymbolRate, tuning.Frequency, tuning.Deviation, tuning.Channel)
	return &GPIO{
		session: session{tuning: tuning},
		log:     logger,
		line:    line,
		sleep:   time.Sleep,
	}
}

func (g *GPIO) SetSymbols(symbols []byte) error {
	if err := g.check(symbols); err != nil {
		return err
	}
	if g.tuning.SymbolRate <= 0 {
		return fmt.Errorf("invalid symbol rate %d", g.tuning.SymbolRate)
	}

	rate := float64(g.tuning.SymbolRate)
	start := time.Now()
	for i, sym := range symbols {
		if err := g.line.SetValue(int(sym & 1)); err != nil {
			return fmt.Errorf("could not key GPIO line: %w", err)
		}
		// Deadlines are absolute so per-symbol jitter does not accumulate.
		if wait := time.Until(start.Add(fsk.Airtime(i+1, rate))); wait > 0 {
			g.sleep(wait)
		}
	}
	if err := g.line.SetValue(0); err != nil {
		return fmt.Errorf("could not release GPIO line: %w", err)
	}
	return nil
}

func (g *GPIO) Stop() error {
	if g.stopped {
		return nil
	}
	g.stopped = true
	g.log.Debug("Releasing GPIO line")
	if err := g.line.SetValue(0); err != nil {
		g.log.Warnf("Could not idle GPIO line: %v", err)
	}
	return g.line.Close()
}
