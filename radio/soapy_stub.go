//go:build !cgo || nosoapy

package radio

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/sendfsk/config"
)

func openSoapy(conf config.RadioConf, tuning Tuning, logger *log.Logger) (Burst, error) {
	return nil, fmt.Errorf("%w: soapy needs cgo and libSoapySDR", ErrDriverUnavailable)
}
