// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"fmt"
	stdio "io"
	"maps"
	"os"

	"github.com/k0kubun/pp/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ezrec/nibble/cpu"
	"github.com/ezrec/nibble/emulator"
	"github.com/ezrec/nibble/internal"
	"github.com/ezrec/nibble/internal/config"
	"github.com/ezrec/nibble/io"
	"github.com/ezrec/nibble/translate"
)

var f = translate.From

var ErrExclusive = errors.New(f("-c and -i are exclusive"))

// options are the settings of a single invocation.
type options struct {
	compile  string
	image    string
	output   string
	save     bool
	maxTicks int
	listing  bool
	dump     bool
	pretty   bool
	verbose  bool
	defines  map[string]string
}

func setupLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)

	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}

	return cfg.Build()
}

func main() {
	opts := options{defines: map[string]string{}}
	var configFile string

	flag.StringVar(&opts.compile, "c", "", ".s file to compile")
	flag.StringVar(&opts.image, "i", "", ".hex memory image to load")
	flag.StringVar(&opts.output, "o", "", ".hex memory image to write, - for stdout")
	flag.BoolVar(&opts.save, "s", false, "Save image only, do not execute")
	flag.IntVar(&opts.maxTicks, "m", 0, "Tick budget, 0 is unbounded")
	flag.BoolVar(&opts.listing, "l", false, "Print listing")
	flag.BoolVar(&opts.dump, "d", false, "Dump memory after the run")
	flag.BoolVar(&opts.pretty, "p", false, "Pretty print the final CPU state")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose mode")
	flag.StringVar(&configFile, "config", "", ".toml file of defaults")

	flag.Parse()

	if flag.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%v: Unknown arguments: %v\n", os.Args[0], flag.Args())
		os.Exit(2)
	}

	if len(configFile) != 0 {
		cfg, err := config.Load(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v: %v\n", configFile, err)
			os.Exit(1)
		}

		set := map[string]bool{}
		flag.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
		opts.merge(cfg, set)
	}

	log, err := setupLogger(opts.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v: %v\n", os.Args[0], err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(log)

	err = run(opts, log, os.Stdout)
	if err != nil {
		log.Error("nibble", zap.Error(err))
	}
	_ = log.Sync()

	if err != nil {
		os.Exit(1)
	}
}

// merge fills the options not set on the command line from cfg.
func (opts *options) merge(cfg *config.Config, set map[string]bool) {
	if !set["c"] {
		opts.compile = cfg.Program
	}
	if !set["i"] {
		opts.image = cfg.Image
	}
	if !set["m"] {
		opts.maxTicks = cfg.MaxTicks
	}
	if !set["v"] {
		opts.verbose = cfg.Verbose
	}
	if !set["d"] {
		opts.dump = cfg.Dump
	}
	maps.Copy(opts.defines, cfg.Defines)
}

// run assembles or loads the image, then executes it, printing any requested
// reports to out.
func run(opts options, log *zap.Logger, out stdio.Writer) (err error) {
	if len(opts.compile) != 0 && len(opts.image) != 0 {
		err = ErrExclusive
		return
	}

	emu := emulator.NewEmulator(log)
	emu.Verbose = opts.verbose
	emu.MaxTicks = opts.maxTicks

	for key, value := range internal.IterSeq2Sorted(emu.Defines()) {
		log.Debug("define", zap.String("name", key), zap.String("value", value))
	}

	// Compile a new instruction stream.
	if len(opts.compile) != 0 {
		var inf *os.File
		inf, err = os.Open(opts.compile)
		if err != nil {
			return
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: opts.verbose, Log: log}
		for key, value := range internal.IterSeq2Concat(emu.Defines(), maps.All(opts.defines)) {
			asm.Predefine(key, value)
		}
		emu.Program, err = asm.Parse(inf)
		if err != nil {
			err = fmt.Errorf("%v: %w", opts.compile, err)
			return
		}
	}

	// Load a memory image.
	if len(opts.image) != 0 {
		var inf *os.File
		inf, err = os.Open(opts.image)
		if err != nil {
			return
		}
		defer inf.Close()

		err = emu.Rom.Unmarshal(inf)
		if err != nil {
			err = fmt.Errorf("%v: %w", opts.image, err)
			return
		}
	}

	err = emu.Reset()
	if err != nil {
		return
	}

	if opts.listing {
		for ip, code := range cpu.Disassemble(emu.Cpu.Memory()) {
			text := code.String()
			dbg := emu.Program.Debug(ip)
			if dbg.Opcode != nil && dbg.Index == 0 {
				fmt.Fprintf(out, "%x: %-12s ; %d\n", ip.Raw(), text, dbg.Opcode.LineNo)
			} else {
				fmt.Fprintf(out, "%x: %s\n", ip.Raw(), text)
			}
		}
	}

	if len(opts.output) != 0 {
		err = writeImage(&io.Rom{Data: emu.Rom.Data}, opts.output, out)
		if err != nil {
			return
		}
	}

	if opts.save {
		return
	}

	err = emu.Run()
	if err != nil {
		return
	}

	if opts.dump {
		fmt.Fprintln(out, emu.Cpu.Memory().String())
	}

	if opts.pretty {
		printer := pp.New()
		printer.SetOutput(out)
		printer.SetColoringEnabled(false)
		printer.Println(emu.Cpu.State())
	} else if opts.verbose {
		fmt.Fprint(out, emu.Cpu.String())
	}

	return
}

// writeImage marshals rom to path, or to out when path is "-".
func writeImage(rom *io.Rom, path string, out stdio.Writer) (err error) {
	if path == "-" {
		err = rom.Marshal(out)
		return
	}

	ouf, err := os.Create(path)
	if err != nil {
		return
	}

	err = rom.Marshal(ouf)
	if cerr := ouf.Close(); err == nil {
		err = cerr
	}

	return
}
