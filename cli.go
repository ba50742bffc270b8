package main

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jrwynneiii/sendfsk/radio"
	"github.com/jrwynneiii/sendfsk/transmit"
)

const description = `sendfsk: send a binary message as an FSK (Frequency-Shift Keying) burst.

The message is a series of 0 and 1 characters; spaces and anything else are ignored.

Example:
  sendfsk -f 868300000 -t 3 -p 5000 1010101001010101
    send 0xaa55 three times on 868.3MHz, pausing 5ms between transmissions.`

type CLI struct {
	Verbose   int    `short:"v" type:"counter" help:"Verbose (-vv: more verbose)"`
	Frequency int64  `short:"f" type:"decimal" default:"433920000" placeholder:"FREQ" help:"Frequency in Hz"`
	Deviation int    `short:"d" type:"decimal" default:"15000" placeholder:"NB" help:"Deviation in Hz"`
	Channel   int    `short:"c" type:"decimal" default:"14" placeholder:"NB" help:"Channel"`
	Rate      int    `short:"r" type:"decimal" default:"1000" placeholder:"NB" help:"Symbol rate"`
	Times     int    `short:"t" type:"decimal" default:"3" placeholder:"NB" help:"Repeat the message NB times"`
	Pause     int    `short:"p" type:"decimal" default:"1000" placeholder:"US" help:"Pause between each message, in microseconds"`
	Config    string `type:"path" help:"Config file (default: search /etc/sendfsk, ~/.config/sendfsk, .)"`
	Driver    string `help:"Radio driver, overrides the config file (${drivers})"`
	Bits      string `arg:"" name:"binary-code" help:"Series of 0 or 1 characters to send"`
}

func (c *CLI) Validate() error {
	var errs []error
	if c.Frequency <= 0 {
		errs = append(errs, fmt.Errorf("frequency must be positive, got %d", c.Frequency))
	}
	if c.Deviation < 0 {
		errs = append(errs, fmt.Errorf("deviation must not be negative, got %d", c.Deviation))
	}
	if c.Rate <= 0 {
		errs = append(errs, fmt.Errorf("symbol rate must be positive, got %d", c.Rate))
	}
	if c.Times < 0 {
		errs = append(errs, fmt.Errorf("repeat count must not be negative, got %d", c.Times))
	}
	if c.Pause < 0 {
		errs = append(errs, fmt.Errorf("pause must not be negative, got %d", c.Pause))
	}
	return errors.Join(errs...)
}

func (c *CLI) plan() transmit.Plan {
	return transmit.Plan{
		Tuning: radio.Tuning{
			Frequency:  c.Frequency,
			SymbolRate: c.Rate,
			Deviation:  c.Deviation,
			Channel:    c.Channel,
		},
		Times: c.Times,
		Pause: time.Duration(c.Pause) * time.Microsecond,
	}
}

func driverList() string {
	return strings.Join(radio.Drivers, ", ")
}

// decimalMapper reads integers in base 10 only, so "010" is ten and "0x10"
// is rejected, the way atoi-based radio tools read their options.
type decimalMapper struct{}

func (decimalMapper) Decode(ctx *kong.DecodeContext, target reflect.Value) error {
	var value string
	if err := ctx.Scan.PopValueInto("value", &value); err != nil {
		return err
	}
	n, err := strconv.ParseInt(value, 10, target.Type().Bits())
	if err != nil {
		return fmt.Errorf("expected a base-10 integer but got %q", value)
	}
	target.SetInt(n)
	return nil
}
