package main

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/sendfsk/config"
	"github.com/jrwynneiii/sendfsk/fsk"
	"github.com/jrwynneiii/sendfsk/radio"
	"github.com/jrwynneiii/sendfsk/transmit"
)

type openFunc func(conf config.Config, tuning radio.Tuning, logger *log.Logger) (radio.Burst, error)

// exitCode unwinds run from inside kong's exit hook.
type exitCode int

func logLevel(verbose int) log.Level {
	switch {
	case verbose >= 2:
		return log.DebugLevel
	case verbose == 1:
		return log.InfoLevel
	}
	return log.WarnLevel
}

func newParser(cli *CLI, stderr io.Writer) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("sendfsk"),
		kong.Description(description),
		kong.Writers(stderr, stderr),
		kong.UsageOnError(),
		kong.Vars{"drivers": driverList()},
		kong.NamedMapper("decimal", decimalMapper{}),
		// Help and usage errors both leave with status 1.
		kong.Exit(func(int) { panic(exitCode(1)) }),
	)
}

func run(ctx context.Context, args []string, stderr io.Writer, open openFunc) (code int) {
	defer func() {
		if r := recover(); r != nil {
			if c, ok := r.(exitCode); ok {
				code = int(c)
				return
			}
			panic(r)
		}
	}()

	var cli CLI
	parser, err := newParser(&cli, stderr)
	if err != nil {
		panic(err)
	}
	_, err = parser.Parse(args)
	parser.FatalIfErrorf(err)

	logger := log.NewWithOptions(stderr, log.Options{
		Prefix:          "sendfsk",
		ReportTimestamp: true,
		Level:           logLevel(cli.Verbose),
	})
	log.SetDefault(logger)

	symbols, err := fsk.Encode(cli.Bits)
	parser.FatalIfErrorf(err)

	conf, err := config.Load(cli.Config)
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	if cli.Driver != "" {
		conf.Radio.Driver = cli.Driver
	}

	logger.Infof("frequency:  %d", cli.Frequency)
	logger.Infof("deviation:  %d", cli.Deviation)
	logger.Infof("symbolRate: %d", cli.Rate)
	logger.Infof("channel:    %d", cli.Channel)
	logger.Infof("times:      %d", cli.Times)
	logger.Infof("pause:      %d", cli.Pause)
	logger.Infof("driver:     %s", conf.Radio.Driver)
	logger.Debugf("symbols:    %s (%d)", fsk.Format(symbols), len(symbols))

	ctx, stop := notifyTerminate(ctx, logger)
	defer stop()

	sender := transmit.New(func(tuning radio.Tuning) (radio.Burst, error) {
		return open(conf, tuning, logger)
	}, logger)

	sent, err := sender.Send(ctx, symbols, cli.plan())
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	logger.Infof("Sent %d/%d transmissions", sent, cli.Times)
	return 0
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr, radio.Open))
}
