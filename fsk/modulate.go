package fsk

import (
	"fmt"
	"math"
	"time"

	"github.com/racerxdl/segdsp/dsp"
)

// Modulator produces phase-continuous binary FSK at complex baseband.
// Symbol 1 sits at +Deviation from the carrier, symbol 0 at -Deviation.
type Modulator struct {
	SampleRate float64
	SymbolRate float64
	Deviation  float64
	Amplitude  float32
	Filter     bool

	phaseStep float64
	taps      []float32
}

func NewModulator(sampleRate, symbolRate, deviation float64, amplitude float32, filter bool) (*Modulator, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %v", sampleRate)
	}
	if symbolRate <= 0 {
		return nil, fmt.Errorf("invalid symbol rate %v", symbolRate)
	}
	if deviation < 0 || deviation >= sampleRate/2 {
		return nil, fmt.Errorf("deviation %v outside of [0, %v)", deviation, sampleRate/2)
	}
	if amplitude <= 0 || amplitude > 1 {
		amplitude = 1
	}

	m := Modulator{
		SampleRate: sampleRate,
		SymbolRate: symbolRate,
		Deviation:  deviation,
		Amplitude:  amplitude,
		Filter:     filter,
		phaseStep:  2 * math.Pi * deviation / sampleRate,
	}

	if filter {
		cutoff := min(deviation+symbolRate, 0.45*sampleRate)
		m.taps = dsp.MakeLowPass(1, sampleRate, cutoff, cutoff/4)
	}
	return &m, nil
}

// SamplesPerSymbol may be fractional; Modulate carries the remainder over.
func (m *Modulator) SamplesPerSymbol() float64 {
	return m.SampleRate / m.SymbolRate
}

// Modulate returns the IQ samples for one burst. Each call starts from zero phase.
func (m *Modulator) Modulate(symbols []byte) []complex64 {
	sps := m.SamplesPerSymbol()
	out := make([]complex64, 0, int(math.Ceil(float64(len(symbols))*sps))+len(m.taps)/2+1)
	amp := float64(m.Amplitude)

	phase := 0.0
	acc := 0.0
	for _, sym := range symbols {
		step := -m.phaseStep
		if sym&1 == 1 {
			step = m.phaseStep
		}

		acc += sps
		n := int(acc)
		acc -= float64(n)

		for range n {
			phase += step
			if phase > math.Pi {
				phase -= 2 * math.Pi
			} else if phase < -math.Pi {
				phase += 2 * math.Pi
			}
			sin, cos := math.Sincos(phase)
			out = append(out, complex(float32(amp*cos), float32(amp*sin)))
		}
	}

	if len(m.taps) > 0 && len(out) > 0 {
		// Pad so the filter's group delay does not swallow the last symbol
		out = append(out, make([]complex64, len(m.taps)/2)...)
		out = dsp.MakeFirFilter(m.taps).Work(out)
	}
	return out
}

// Airtime is how long n symbols take to send at rate symbols per second.
func Airtime(n int, rate float64) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(float64(n) / rate * float64(time.Second))
}
