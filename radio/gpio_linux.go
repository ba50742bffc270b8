package radio

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/sendfsk/config"
	"github.com/warthog618/go-gpiocdev"
)

func NewGPIO(conf config.GPIOConf, tuning Tuning, logger *log.Logger) (*GPIO, error) {
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer("sendfsk"),
	}
	if conf.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}

	logger.Debugf("Requesting %s line %d", conf.Chip, conf.Line)
	line, err := gpiocdev.RequestLine(conf.Chip, conf.Line, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not request %s line %d: %w", conf.Chip, conf.Line, err)
	}
	return newGPIO(line, tuning, logger), nil
}
