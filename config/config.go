package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/knadh/koanf/parsers/hcl"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "SENDFSK_"

type RadioConf struct {
	Driver     string            `koanf:"driver"`
	Args       map[string]string `koanf:"args"`
	SampleRate float64           `koanf:"sample_rate"`
	Gain       float64           `koanf:"gain"`
	Amplitude  float32           `koanf:"amplitude"`
	Filter     bool              `koanf:"filter"`
}

type GPIOConf struct {
	Chip      string `koanf:"chip"`
	Line      int    `koanf:"line"`
	ActiveLow bool   `koanf:"active_low"`
}

type IQFileConf struct {
	Path string `koanf:"path"`
}

type Config struct {
	Radio  RadioConf  `koanf:"radio"`
	GPIO   GPIOConf   `koanf:"gpio"`
	IQFile IQFileConf `koanf:"iqfile"`
}

func Default() Config {
	return Config{
		Radio: RadioConf{
			Driver:     "soapy",
			SampleRate: 1e6,
			Amplitude:  0.7,
			Filter:     true,
		},
		GPIO: GPIOConf{
			Chip: "gpiochip0",
			Line: 4,
		},
		IQFile: IQFileConf{
			Path: "burst.cf32",
		},
	}
}

// SearchPaths lists where a config file is looked for, in order.
func SearchPaths() []string {
	paths := []string{"/etc/sendfsk/config.hcl"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "sendfsk", "config.hcl"))
	}
	return append(paths, "./config.hcl")
}

func findConfigPath(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			log.Debugf("Found config file: %s", path)
			return path
		}
	}
	log.Debug("Config file not found, using defaults")
	return ""
}

// Load reads the HCL config file at path, or the first one found on the
// search path when path is empty, and then overlays SENDFSK_* environment
// variables. Keys missing from both keep their defaults.
func Load(path string) (Config, error) {
	conf := Default()
	k := koanf.New(".")

	if path == "" {
		path = findConfigPath(SearchPaths())
	}
	if path != "" {
		if err := k.Load(file.Provider(path), hcl.Parser(true)); err != nil {
			return conf, fmt.Errorf("could not read config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(k, v string) (string, any) {
			key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
			k = strings.Replace(key, "_", ".", 1)
			log.Debugf("Found config env var: %s=%v", k, v)
			return k, v
		},
	}), nil)
	if err != nil {
		return conf, fmt.Errorf("could not read environment: %w", err)
	}

	if err := k.Unmarshal("", &conf); err != nil {
		return conf, fmt.Errorf("could not decode config: %w", err)
	}
	return conf, nil
}
