//go:build cgo && !nosoapy

package radio

// #cgo CFLAGS: -g -Wall
// #cgo LDFLAGS: -lSoapySDR
// #include <stdlib.h>
// #include <SoapySDR/Constants.h>
// #include <SoapySDR/Device.h>
// #include <SoapySDR/Formats.h>
//
// static SoapySDRStream *sendfsk_setup_tx(SoapySDRDevice *dev, size_t channel) {
// 	size_t chans[1] = {channel};
// 	return SoapySDRDevice_setupStream(dev, SOAPY_SDR_TX, SOAPY_SDR_CF32, chans, 1, NULL);
// }
//
// static int sendfsk_write(SoapySDRDevice *dev, SoapySDRStream *stream, const void *buf, size_t n, int endBurst, long timeoutUs) {
// 	const void *buffs[1] = {buf};
// 	int flags = endBurst ? SOAPY_SDR_END_BURST : 0;
// 	return SoapySDRDevice_writeStream(dev, stream, buffs, n, &flags, 0, timeoutUs);
// }
import "C"

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/sendfsk/config"
	"github.com/jrwynneiii/sendfsk/fsk"

	"github.com/pothosware/go-soapy-sdr/pkg/device"
	"github.com/pothosware/go-soapy-sdr/pkg/modules"
	"github.com/pothosware/go-soapy-sdr/pkg/sdrlogger"
	"github.com/pothosware/go-soapy-sdr/pkg/version"
)

const (
	writeChunk     = 16384
	writeTimeoutUs = 1000000
)

// Soapy transmits the modulated burst through a SoapySDR TX stream. The
// stream is driven through the C API directly: the Go binding's Write hands
// SoapySDR a buffer array it never fills.
type Soapy struct {
	session
	log     *log.Logger
	mod     *fsk.Modulator
	cache   iqCache
	device  *C.SoapySDRDevice
	stream  *C.SoapySDRStream
	channel uint
	chunk   int
}

func InitSoapySDR(logger *log.Logger) {
	logger.Debugf("Using SoapySDR versions: ABI: %s API: %s Lib: %s", version.GetABIVersion(), version.GetAPIVersion(), version.GetLibVersion())
	logger.Debugf("SoapySDR modules root path: %v", modules.GetRootPath())

	modulesFound := modules.ListModules()
	if len(modulesFound) > 0 {
		for _, module := range modulesFound {
			moduleVersion := modules.GetModuleVersion(module)
			if len(moduleVersion) == 0 {
				moduleVersion = "[None]"
			}
			logger.Debugf("Found SoapySDR module: %v, version: %v", module, moduleVersion)
		}
	} else {
		logger.Debug("No SoapySDR modules found")
	}
	sdrlogger.SetLogLevel(sdrlogger.Error)
}

// LogMatchingDevices lists the devices args would select.
func LogMatchingDevices(args map[string]string, logger *log.Logger) {
	devices := device.Enumerate(args)
	logger.Debugf("Found %d devices matching %v", len(devices), args)
	for idx, dev := range devices {
		logger.Debugf("\t#%d: %v", idx, dev)
	}
}

func lastError(what string, ret C.int) error {
	if ret == 0 {
		return nil
	}
	return fmt.Errorf("%s: %s", what, C.GoString(C.SoapySDRDevice_lastError()))
}

func makeDevice(args map[string]string) (*C.SoapySDRDevice, error) {
	var kwargs C.SoapySDRKwargs
	defer C.SoapySDRKwargs_clear(&kwargs)
	for k, v := range args {
		ck, cv := C.CString(k), C.CString(v)
		C.SoapySDRKwargs_set(&kwargs, ck, cv)
		C.free(unsafe.Pointer(ck))
		C.free(unsafe.Pointer(cv))
	}

	dev := C.SoapySDRDevice_make(&kwargs)
	if dev == nil {
		return nil, fmt.Errorf("could not create SoapySDR device: %s", C.GoString(C.SoapySDRDevice_lastError()))
	}
	return dev, nil
}

func openSoapy(conf config.RadioConf, tuning Tuning, logger *log.Logger) (Burst, error) {
	s, err := NewSoapy(conf, tuning, logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func NewSoapy(conf config.RadioConf, tuning Tuning, logger *log.Logger) (*Soapy, error) {
	mod, err := newModulator(conf, tuning)
	if err != nil {
		return nil, err
	}

	logger.Debug("Initing SoapySDR")
	InitSoapySDR(logger)
	LogMatchingDevices(conf.Args, logger)

	s := Soapy{
		session: session{tuning: tuning},
		log:     logger,
		mod:     mod,
	}
	if s.device, err = makeDevice(conf.Args); err != nil {
		return nil, err
	}

	if err := s.setup(conf); err != nil {
		if uerr := lastError("could not release SoapySDR device", C.SoapySDRDevice_unmake(s.device)); uerr != nil {
			logger.Errorf("%v", uerr)
		}
		return nil, err
	}
	return &s, nil
}

func (s *Soapy) setup(conf config.RadioConf) error {
	numChannels := uint(C.SoapySDRDevice_getNumChannels(s.device, C.SOAPY_SDR_TX))
	if numChannels == 0 {
		return errors.New("SoapySDR device has no TX channels")
	}
	if s.tuning.Channel >= 0 && uint(s.tuning.Channel) < numChannels {
		s.channel = uint(s.tuning.Channel)
	} else {
		s.log.Warnf("Channel %d not available on this device (%d TX channels), using channel 0", s.tuning.Channel, numChannels)
	}
	channel := C.size_t(s.channel)

	s.log.Debugf("Setting sample rate to %f", conf.SampleRate)
	if err := lastError("could not set sample rate", C.SoapySDRDevice_setSampleRate(s.device, C.SOAPY_SDR_TX, channel, C.double(conf.SampleRate))); err != nil {
		return err
	}

	s.log.Debugf("Setting frequency to %d", s.tuning.Frequency)
	if err := lastError("could not set frequency", C.SoapySDRDevice_setFrequency(s.device, C.SOAPY_SDR_TX, channel, C.double(s.tuning.Frequency), nil)); err != nil {
		return err
	}

	if conf.Gain != 0 {
		s.log.Debugf("Setting gain to %f", conf.Gain)
		if err := lastError("could not set gain", C.SoapySDRDevice_setGain(s.device, C.SOAPY_SDR_TX, channel, C.double(conf.Gain))); err != nil {
			return err
		}
	}

	s.log.Debug("Creating the TX stream")
	if s.stream = C.sendfsk_setup_tx(s.device, channel); s.stream == nil {
		return fmt.Errorf("could not setup TX stream: %s", C.GoString(C.SoapySDRDevice_lastError()))
	}
	s.chunk = writeChunk
	if mtu := int(C.SoapySDRDevice_getStreamMTU(s.device, s.stream)); mtu > 0 {
		s.chunk = mtu
	}

	s.log.Debug("Activating TX stream")
	if ret := C.SoapySDRDevice_activateStream(s.device, s.stream, 0, 0, 0); ret != 0 {
		C.SoapySDRDevice_closeStream(s.device, s.stream)
		return fmt.Errorf("could not activate the TX stream: %s", C.GoString(C.SoapySDR_errToStr(ret)))
	}
	return nil
}

func (s *Soapy) SetSymbols(symbols []byte) error {
	if err := s.check(symbols); err != nil {
		return err
	}

	start := time.Now()
	iq := s.cache.modulate(s.mod, symbols)
	s.log.Debugf("Writing %d samples for %d symbols", len(iq), len(symbols))

	err := writeBurst(iq, s.chunk, func(samples []complex64, endBurst bool) (int, error) {
		end := C.int(0)
		if endBurst {
			end = 1
		}
		ret := C.sendfsk_write(s.device, s.stream, unsafe.Pointer(&samples[0]), C.size_t(len(samples)), end, writeTimeoutUs)
		if ret < 0 {
			return 0, fmt.Errorf("could not write TX stream: %s", C.GoString(C.SoapySDR_errToStr(ret)))
		}
		return int(ret), nil
	})
	if err != nil {
		return err
	}

	// The device buffers; hold until the burst is on the air.
	if wait := fsk.Airtime(len(symbols), float64(s.tuning.SymbolRate)) - time.Since(start); wait > 0 {
		time.Sleep(wait)
	}
	return nil
}

func (s *Soapy) Stop() error {
	if s.stopped {
		return nil
	}
	s.stopped = true

	var errs []error
	s.log.Debug("Deactivating TX stream...")
	if ret := C.SoapySDRDevice_deactivateStream(s.device, s.stream, 0, 0); ret != 0 {
		errs = append(errs, fmt.Errorf("could not deactivate the TX stream: %s", C.GoString(C.SoapySDR_errToStr(ret))))
	}
	s.log.Debug("Closing TX stream...")
	errs = append(errs, lastError("could not close the TX stream", C.SoapySDRDevice_closeStream(s.device, s.stream)))
	errs = append(errs, lastError("could not release SoapySDR device", C.SoapySDRDevice_unmake(s.device)))
	return errors.Join(errs...)
}
