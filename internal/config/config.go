// Package config loads default settings for the nibble command.
package config

import (
	"errors"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/ezrec/nibble/translate"
)

var f = translate.From

var (
	ErrConfigUnknownKey = errors.New(f("unknown configuration key"))
	ErrConfigMaxTicks   = errors.New(f("max_ticks must not be negative"))
)

// Config holds the settings a TOML file may provide.
//
//	program   = "add.s"       # assembly source to compile
//	image     = "add.hex"     # memory image to load
//	max_ticks = 100           # tick budget, 0 is unbounded
//	verbose   = false         # trace every cycle
//	dump      = true          # dump memory after the run
//
//	[defines]
//	RESULT = "0xe"
type Config struct {
	Program  string            `toml:"program"`
	Image    string            `toml:"image"`
	MaxTicks int               `toml:"max_ticks"`
	Verbose  bool              `toml:"verbose"`
	Dump     bool              `toml:"dump"`
	Defines  map[string]string `toml:"defines"`
}

// Decode reads a configuration from r.
func Decode(r io.Reader) (cfg *Config, err error) {
	cfg = &Config{}

	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		cfg = nil
		return
	}

	var errs []error
	for _, key := range md.Undecoded() {
		errs = append(errs, errors.Join(ErrConfigUnknownKey, errors.New(key.String())))
	}
	if cfg.MaxTicks < 0 {
		errs = append(errs, ErrConfigMaxTicks)
	}

	err = errors.Join(errs...)
	if err != nil {
		cfg = nil
	}

	return
}

// Load reads a configuration file.
func Load(path string) (cfg *Config, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	cfg, err = Decode(inf)
	return
}
