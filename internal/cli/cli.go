// Package cli implements the command-line front-ends: option parsing, environment defaults, and wiring of the file
// processor.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/xzutils/internal/argfile"
	"github.com/nguyengg/xzutils/internal/config"
	"github.com/nguyengg/xzutils/internal/diag"
	"github.com/nguyengg/xzutils/internal/process"
	"golang.org/x/term"
)

// Version is printed by --version.
var Version = "5.4.0"

// Env is what an invocation reads from and writes to besides files.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	StdinIsTerminal  bool
	StdoutIsTerminal bool
	StderrIsTerminal bool

	// Getenv returns the value of an environment variable, empty if unset.
	Getenv func(string) string
}

// Main runs the front-end with the process's arguments and standard streams, then exits.
func Main(fe *Frontend) {
	ctx, stop := notifyContext(context.Background())

	status := Run(ctx, fe, os.Args[1:], Env{
		Stdin:            os.Stdin,
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
		StdinIsTerminal:  term.IsTerminal(int(os.Stdin.Fd())),
		StdoutIsTerminal: term.IsTerminal(int(os.Stdout.Fd())),
		StderrIsTerminal: term.IsTerminal(int(os.Stderr.Fd())),
		Getenv:           os.Getenv,
	})

	stop()
	os.Exit(status)
}

// Run runs the front-end with the given arguments (not including the program name) and returns the exit status.
func Run(ctx context.Context, fe *Frontend, args []string, env Env) int {
	logger := diag.NewLogger(env.Stderr, fe.Name)

	inv, err := parse(fe, args, env)
	switch {
	case err == nil:
	case flags.WroteHelp(err):
		_, _ = fmt.Fprintln(env.Stdout, err.Error())
		return int(diag.Ok)
	default:
		d := diag.FromError("", err)
		if inv == nil || inv.cfg.Quiet < 2 {
			logger.Print(d.String())
		}
		if d.Kind == diag.InvalidOption {
			_, _ = fmt.Fprintf(env.Stderr, "Try `%s --help' for more information.\n", fe.Name)
		}
		return int(diag.ErrorStatus)
	}

	if inv.version {
		_, _ = fmt.Fprintf(env.Stdout, "%s (xzutils) %s\n", fe.Name, Version)
		return int(diag.Ok)
	}

	if inv.fromArgfile && len(inv.files) == 0 {
		return int(diag.Ok)
	}

	cfg := inv.cfg
	f := &diag.Formatter{Quiet: cfg.Quiet, Verbose: cfg.Verbose, Logger: logger}
	d := &process.Driver{
		Processor: &process.Processor{
			Config:           cfg,
			Program:          fe.Name,
			Stdin:            env.Stdin,
			Stdout:           env.Stdout,
			Stderr:           env.Stderr,
			StdinIsTerminal:  env.StdinIsTerminal,
			StdoutIsTerminal: env.StdoutIsTerminal,
			StderrIsTerminal: env.StderrIsTerminal,
		},
		OnDiagnostic: f.Print,
	}

	return int(d.Run(ctx, inv.files).Status)
}

// invocation is the result of parsing.
type invocation struct {
	cfg         *config.Config
	files       []string
	fromArgfile bool
	version     bool
}

// parse layers the environment variables and the command line into a validated config.
//
// The returned invocation is non-nil if the error happened after the options were parsed.
func parse(fe *Frontend, args []string, env Env) (*invocation, error) {
	st := &state{mode: fe.Mode, level: config.LevelUnset}
	opts := fe.newOptions(st)

	p := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	p.Name = fe.Name
	p.Usage = "[OPTION]... [FILE]..."

	for _, key := range fe.envVars() {
		value := ""
		if env.Getenv != nil {
			value = env.Getenv(key)
		}
		if strings.TrimSpace(value) == "" {
			continue
		}

		rest, err := p.ParseArgs(strings.Fields(value))
		if err != nil {
			if flags.WroteHelp(err) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s: %v", config.ErrInvalidOption, key, flagsMessage(err))
		}
		if len(rest) != 0 {
			return nil, fmt.Errorf("%w: %s: non-option arguments are not allowed", config.ErrInvalidOption, key)
		}
	}

	files, err := p.ParseArgs(args)
	if err != nil {
		if flags.WroteHelp(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidOption, flagsMessage(err))
	}

	cfg := config.New()
	cfg.Mode = fe.Mode
	cfg.Format = fe.Format
	if fe.Mode == config.Cat {
		cfg.Stdout, cfg.Keep = true, true
	}

	inv := &invocation{cfg: cfg, files: files, version: opts.version()}
	if inv.version {
		return inv, nil
	}

	if err = opts.apply(cfg); err == nil {
		err = st.apply(cfg)
	}
	cfg.Normalize()
	if err != nil {
		return inv, err
	}
	if err = cfg.Validate(); err != nil {
		return inv, err
	}

	switch names, names0 := opts.argfiles(); {
	case names != "" && names0 != "":
		return inv, fmt.Errorf("%w: --files and --files0 are mutually exclusive", config.ErrInvalidOption)
	case names != "":
		err = inv.readArgfile(names, env.Stdin, argfile.Line)
	case names0 != "":
		err = inv.readArgfile(names0, env.Stdin, argfile.Nul)
	}

	return inv, err
}

func (inv *invocation) readArgfile(name string, stdin io.Reader, delim argfile.Delimiter) error {
	names, err := argfile.Read(name, stdin, delim)
	if err != nil {
		return err
	}

	inv.files = append(inv.files, names...)
	inv.fromArgfile = true
	return nil
}

func flagsMessage(err error) string {
	var fe *flags.Error
	if errors.As(err, &fe) {
		return fe.Message
	}

	return err.Error()
}
