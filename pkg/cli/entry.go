// Package cli implements the xcvm command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/funvibe/xcvm/internal/check"
	"github.com/funvibe/xcvm/internal/config"
	"github.com/funvibe/xcvm/internal/tensor"
	"github.com/funvibe/xcvm/internal/vm"
)

// Exit codes
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

type runFlags struct {
	config      *string
	trace       *bool
	debugValues *bool
	budget      *string
	color       *string
	inputs      *map[string]string
	program     *string
}

// Main runs the command line with args (without the program name) and
// returns the process exit code.
func Main(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := kingpin.New("xcvm", "Runs tensor register programs.")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	app.HelpFlag.Short('h')
	exited := false
	app.Terminate(func(int) { exited = true })

	run := app.Command("run", "Run a program and print its outputs.")
	rf := runFlags{
		config:      run.Flag("config", "xcvm.yaml to use instead of searching from the program's directory.").String(),
		trace:       run.Flag("trace", "Log every instruction with its operand registers.").Bool(),
		debugValues: run.Flag("debug-values", "Render full array contents instead of shapes.").Bool(),
		budget:      run.Flag("budget", "Memory budget for live registers, e.g. 512MiB.").String(),
		color:       run.Flag("color", "Colorize output: auto, always or never.").Enum(config.ColorAuto, config.ColorAlways, config.ColorNever),
		inputs:      run.Flag("input", "Replace an input with zeros: name=dtype:d0,d1,...").Short('i').StringMap(),
		program:     run.Arg("program", "Program file.").Required().ExistingFile(),
	}

	disasm := app.Command("disasm", "Print a program listing.")
	disasmProgram := disasm.Arg("program", "Program file.").Required().ExistingFile()

	cmd, err := app.Parse(args)
	if exited {
		return ExitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "xcvm: %s\n", err)
		return ExitUsage
	}

	switch cmd {
	case run.FullCommand():
		return runCommand(ctx, rf, stdout, stderr)
	case disasm.FullCommand():
		return disasmCommand(*disasmProgram, stdout, stderr)
	}
	return ExitUsage
}

// isProgramFile checks if a file has a recognized program extension
func isProgramFile(path string) bool {
	for _, ext := range config.ProgramFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func loadProgram(path string, stderr io.Writer) (*vm.Program, error) {
	if !isProgramFile(path) {
		fmt.Fprintf(stderr, "Warning: %q is not a recognized program file (%s)\n",
			path, strings.Join(config.ProgramFileExtensions, ", "))
	}
	return vm.LoadProgram(path)
}

func disasmCommand(path string, stdout, stderr io.Writer) int {
	prog, err := loadProgram(path, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return ExitError
	}
	fmt.Fprint(stdout, vm.Disassemble(prog, filepath.Base(path)))
	return ExitOK
}

// resolveConfig loads --config, else the nearest xcvm.yaml, else defaults,
// then applies command line overrides.
func resolveConfig(f runFlags) (*config.Config, error) {
	cfg := config.Default()
	path := *f.config
	if path == "" {
		found, err := config.FindConfig(filepath.Dir(*f.program))
		if err != nil {
			return nil, err
		}
		path = found
	}
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if *f.trace {
		cfg.Trace = true
	}
	if *f.debugValues {
		cfg.DebugValues = true
	}
	if *f.budget != "" {
		cfg.MemoryBudget = *f.budget
	}
	if *f.color != "" {
		cfg.Color = *f.color
	}
	return cfg, nil
}

func useColor(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

func runCommand(ctx context.Context, f runFlags, stdout, stderr io.Writer) int {
	cfg, err := resolveConfig(f)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %s\n", err)
		return ExitError
	}
	budget, err := cfg.Budget()
	if err != nil {
		fmt.Fprintf(stderr, "Error: budget: %s\n", err)
		return ExitError
	}
	level, err := cfg.Level()
	if err != nil {
		fmt.Fprintf(stderr, "Error: log level: %s\n", err)
		return ExitError
	}
	if cfg.Trace && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}

	prog, err := loadProgram(*f.program, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return ExitError
	}

	inputs, code := buildInputs(prog, *f.inputs, stderr)
	if code != ExitOK {
		return code
	}

	checkLog := check.Logger()
	prevOut := checkLog.Out
	checkLog.SetOutput(stderr)
	defer checkLog.SetOutput(prevOut)

	colored := useColor(cfg.Color, stdout)
	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:      colored,
		DisableColors:    !colored,
		DisableTimestamp: true,
	})

	machine := vm.New(vm.Options{
		Budget:      budget,
		Trace:       cfg.Trace,
		DebugValues: cfg.DebugValues,
		Logger:      logger,
		Output:      stdout,
	})
	res, err := machine.Run(ctx, prog, inputs)
	if err != nil {
		fmt.Fprintf(stderr, "Runtime error: %s\n", err)
		return ExitError
	}

	printResult(stdout, res, cfg.DebugValues, colored)
	return ExitOK
}

// buildInputs parses --input overrides. Every name must be read by an In
// instruction of prog.
func buildInputs(prog *vm.Program, raw map[string]string, stderr io.Writer) (map[string]tensor.Array, int) {
	known := make(map[string]bool)
	for _, name := range prog.InputNames() {
		known[name] = true
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	inputs := make(map[string]tensor.Array, len(raw))
	for _, name := range names {
		if !known[name] {
			fmt.Fprintf(stderr, "Error: --input %s: program has no input %q (inputs: %s)\n",
				name, name, strings.Join(prog.InputNames(), ", "))
			return nil, ExitUsage
		}
		spec, err := parseInputSpec(raw[name])
		if err != nil {
			fmt.Fprintf(stderr, "Error: --input %s: %s\n", name, err)
			return nil, ExitUsage
		}
		inputs[name] = spec.Array()
	}
	return inputs, ExitOK
}

func printResult(w io.Writer, res *vm.Result, debug, colored bool) {
	sigil := color.New(color.FgCyan, color.Bold)
	if colored {
		sigil.EnableColor()
	} else {
		sigil.DisableColor()
	}

	for _, name := range res.Order {
		v := res.Outputs[name]
		text := v.String()
		if debug {
			text = v.DebugString()
		}
		fmt.Fprintf(w, "%s = %s%s\n", name, sigil.Sprint(string(v.Sigil())), text)
	}
	fmt.Fprintf(w, "memory: %s live, %s peak\n",
		humanize.IBytes(res.State.TotalSize()), humanize.IBytes(res.State.PeakSize()))
}
