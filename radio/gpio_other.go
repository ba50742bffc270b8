//go:build !linux

package radio

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/sendfsk/config"
)

func NewGPIO(conf config.GPIOConf, tuning Tuning, logger *log.Logger) (*GPIO, error) {
	return nil, errors.New("gpio driver needs the linux GPIO character device")
}
