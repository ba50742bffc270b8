// Package transmit runs the repeat/pause loop around a burst transmitter.
package transmit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/sendfsk/radio"
)

// OpenFunc constructs the transmitter. It is called exactly once per Send.
type OpenFunc func(tuning radio.Tuning) (radio.Burst, error)

type Plan struct {
	Tuning radio.Tuning
	Times  int
	Pause  time.Duration
}

type Sender struct {
	Log   *log.Logger
	Open  OpenFunc
	sleep func(ctx context.Context, d time.Duration)
}

func New(open OpenFunc, logger *log.Logger) *Sender {
	if logger == nil {
		logger = log.Default()
	}
	return &Sender{
		Log:   logger,
		Open:  open,
		sleep: pause,
	}
}

// pause sleeps for d or until ctx is done, whichever comes first.
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Send opens the transmitter, submits symbols plan.Times times and stops the
// transmitter again. Cancelling ctx ends the loop at the next iteration
// boundary; a burst already being emitted is never cut short. The number of
// bursts submitted is returned alongside any error.
func (s *Sender) Send(ctx context.Context, symbols []byte, plan Plan) (sent int, err error) {
	plan.Tuning.BufferSize = len(symbols)

	burst, err := s.Open(plan.Tuning)
	if err != nil {
		return 0, fmt.Errorf("could not open transmitter: %w", err)
	}
	defer func() {
		if serr := burst.Stop(); serr != nil {
			err = errors.Join(err, fmt.Errorf("could not stop transmitter: %w", serr))
		}
	}()

	for i := 0; i < plan.Times; i++ {
		s.Log.Debugf("Transmission %d/%d", i+1, plan.Times)
		if err := burst.SetSymbols(symbols); err != nil {
			return sent, fmt.Errorf("transmission %d/%d: %w", i+1, plan.Times, err)
		}
		sent++

		if i < plan.Times-1 {
			s.sleep(ctx, plan.Pause)
		}

		if ctx.Err() != nil {
			s.Log.Debugf("Stopping after %d/%d transmissions", sent, plan.Times)
			break
		}
	}
	return sent, nil
}
