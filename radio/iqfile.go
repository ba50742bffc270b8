package radio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/sendfsk/config"
	"github.com/jrwynneiii/sendfsk/fsk"
)

// IQFile appends every burst to a file of little-endian float32 I/Q pairs.
// The carrier frequency is not part of the samples.
type IQFile struct {
	session
	log   *log.Logger
	mod   *fsk.Modulator
	cache iqCache
	path  string
	file  *os.File
	out   *bufio.Writer
}

func NewIQFile(path string, conf config.RadioConf, tuning Tuning, logger *log.Logger) (*IQFile, error) {
	mod, err := newModulator(conf, tuning)
	if err != nil {
		return nil, err
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create IQ file: %w", err)
	}
	logger.Debugf("Writing CF32 samples at %v S/s to %s", conf.SampleRate, path)

	return &IQFile{
		session: session{tuning: tuning},
		log:     logger,
		mod:     mod,
		path:    path,
		file:    file,
		out:     bufio.NewWriter(file),
	}, nil
}

func (f *IQFile) SetSymbols(symbols []byte) error {
	if err := f.check(symbols); err != nil {
		return err
	}
	iq := f.cache.modulate(f.mod, symbols)
	if err := binary.Write(f.out, binary.LittleEndian, iq); err != nil {
		return fmt.Errorf("could not write IQ file %s: %w", f.path, err)
	}
	f.log.Debugf("Wrote burst of %d samples to %s", len(iq), f.path)
	return nil
}

func (f *IQFile) Stop() error {
	if f.stopped {
		return nil
	}
	f.stopped = true
	return errors.Join(f.out.Flush(), f.file.Close())
}
