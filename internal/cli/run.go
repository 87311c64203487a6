// Package cli implements the ccount command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/calvinalkan/cycle-count/internal/count"
	"github.com/calvinalkan/cycle-count/internal/logging"
	"github.com/calvinalkan/cycle-count/internal/session"
)

// Run is the main entry point. Returns exit code.
// sigCh may be nil; when it delivers, the running command's context is canceled.
func Run(_ io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globalFlags := flag.NewFlagSet("ccount", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.SetOutput(&strings.Builder{})
	flagHelp := globalFlags.BoolP("help", "h", false, "Show help")
	flagCwd := globalFlags.StringP("cwd", "C", "", "Run as if started in `dir`")
	flagConfig := globalFlags.StringP("config", "c", "", "Use specified config `file`")
	flagDataDir := globalFlags.String("data-dir", "", "Override data `directory`")

	a := &app{env: env}
	commands := allCommands(a)

	if len(args) < 2 {
		printUsage(out, globalFlags, commands)

		return 0
	}

	err := globalFlags.Parse(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)
		fprintln(errOut)
		printUsage(errOut, globalFlags, commands)

		return 1
	}

	if *flagHelp {
		printUsage(out, globalFlags, commands)

		return 0
	}

	if globalFlags.Changed("data-dir") && *flagDataDir == "" {
		fprintln(errOut, "error:", count.ErrDataDirEmpty)
		fprintln(errOut)
		printUsage(errOut, globalFlags, commands)

		return 1
	}

	cfg, err := count.LoadConfig(count.LoadConfigInput{
		WorkDirOverride: *flagCwd,
		ConfigPath:      *flagConfig,
		DataDirOverride: *flagDataDir,
		Env:             env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	a.cfg = cfg

	rest := globalFlags.Args()
	if len(rest) == 0 {
		fprintln(errOut, "error: no command provided")
		fprintln(errOut)
		printUsage(errOut, globalFlags, commands)

		return 1
	}

	var cmd *Command

	for _, c := range commands {
		if c.Name() == rest[0] {
			cmd = c

			break
		}
	}

	if cmd == nil {
		fprintln(errOut, "error: unknown command:", rest[0])
		fprintln(errOut)
		printUsage(errOut, globalFlags, commands)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	o := NewIO(out, errOut, a.prefs())

	defer func() {
		closeErr := a.close()
		if closeErr != nil {
			fprintln(errOut, "error:", closeErr)
		}
	}()

	code := cmd.Run(ctx, o, rest[1:])
	if code != 0 {
		return code
	}

	return o.Finish()
}

// app holds what commands share: the resolved config and the lazily
// opened tracker and log file.
type app struct {
	env     map[string]string
	cfg     count.Config
	log     *zap.Logger
	closeFn func() error
	tracker *count.Tracker
}

// prefs returns the preferences CLI output is localized with.
func (a *app) prefs() session.Prefs {
	return session.Prefs{Lang: a.cfg.Lang}
}

// logger opens the log file on first use.
func (a *app) logger() (*zap.Logger, error) {
	if a.log != nil {
		return a.log, nil
	}

	log, closeFn, err := logging.NewFile(a.cfg.LogDirAbs, zapcore.InfoLevel)
	if err != nil {
		return nil, err
	}

	a.log = log
	a.closeFn = closeFn

	return log, nil
}

// openTracker seeds both tables and returns repositories over them.
func (a *app) openTracker() (*count.Tracker, error) {
	if a.tracker != nil {
		return a.tracker, nil
	}

	log, err := a.logger()
	if err != nil {
		return nil, err
	}

	tracker, err := count.Open(a.cfg.TrackerOptions(log))
	if err != nil {
		return nil, err
	}

	a.tracker = tracker

	return tracker, nil
}

func (a *app) close() error {
	if a.closeFn == nil {
		return nil
	}

	err := a.closeFn()
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("close log: %w", err)
	}

	return nil
}

func allCommands(a *app) []*Command {
	return []*Command{
		AssignCmd(a),
		MyCmd(a),
		SubmitCmd(a),
		DashboardCmd(a),
		ExportCmd(a),
		ServeCmd(a),
		PrintConfigCmd(a),
	}
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, globalFlags *flag.FlagSet, commands []*Command) {
	fprintln(w, "ccount - warehouse cycle-count tracker")
	fprintln(w)
	fprintln(w, "Usage: ccount [global flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Global flags:")
	_, _ = fmt.Fprint(w, globalFlags.FlagUsages())
	fprintln(w)
	fprintln(w, "Commands:")

	for _, c := range commands {
		fprintln(w, c.HelpLine())
	}

	fprintln(w)
	fprintln(w, "Run 'ccount <command> --help' for command flags.")
}
