package fsk

import (
	"errors"
	"fmt"
)

// MaxSymbols is the capacity of a symbol buffer.
const MaxSymbols = 4096

var ErrTooManySymbols = errors.New("too many symbols")

// Encode turns a string of '0' and '1' characters into one symbol per bit.
// Every other character, spaces included, is skipped.
func Encode(bits string) ([]byte, error) {
	symbols := make([]byte, 0, min(len(bits), MaxSymbols))
	for _, b := range bits {
		var sym byte
		switch b {
		case '0':
			sym = 0
		case '1':
			sym = 1
		default:
			continue
		}
		if len(symbols) == MaxSymbols {
			return nil, fmt.Errorf("%w: more than %d in message", ErrTooManySymbols, MaxSymbols)
		}
		symbols = append(symbols, sym)
	}
	return symbols, nil
}

// Format renders symbols back as a bit string, mostly for trace output.
func Format(symbols []byte) string {
	out := make([]byte, len(symbols))
	for i, s := range symbols {
		out[i] = '0' + s&1
	}
	return string(out)
}
