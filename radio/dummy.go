package radio

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/sendfsk/fsk"
)

// Dummy touches no hardware. It blocks for as long as the burst would be on
// the air, so timing around it behaves like a real transmitter.
type Dummy struct {
	session
	log   *log.Logger
	sleep func(time.Duration)
	Sent  int
}

func NewDummy(tuning Tuning, logger *log.Logger) *Dummy {
	return &Dummy{
		session: session{tuning: tuning},
		log:     logger,
		sleep:   time.Sleep,
	}
}

func (d *Dummy) SetSymbols(symbols []byte) error {
	if err := d.check(symbols); err != nil {
		return err
	}
	d.log.Debugf("Dummy burst on %d Hz: %s", d.tuning.Frequency, fsk.Format(symbols))
	d.sleep(fsk.Airtime(len(symbols), float64(d.tuning.SymbolRate)))
	d.Sent++
	return nil
}

func (d *Dummy) Stop() error {
	d.stopped = true
	return nil
}
