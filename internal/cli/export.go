package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/cycle-count/internal/report"
	"github.com/calvinalkan/cycle-count/internal/session"
)

// ExportCmd returns the export command.
func ExportCmd(a *app) *Command {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.String("format", report.FormatCSV, "Export format (csv|xlsx)")
	fs.StringP("out", "o", "", "Directory to write the export to (default: working directory)")
	fs.Bool("stdout", false, "Write the export to stdout instead of a file")

	return &Command{
		Flags: fs,
		Usage: "export [flags]",
		Short: "Export all submissions",
		Long: "Write every submission to submissions_<UTC timestamp>.csv (or .xlsx) and print\n" +
			"the file path. Fails when there are no submissions yet.",
		Examples: []string{
			"export",
			"export --format xlsx -o reports",
			"export --stdout > submissions.csv",
		},
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) > 0 {
				return errTooManyArgs
			}

			return execExport(o, a, fs)
		},
	}
}

func execExport(o *IO, a *app, fs *flag.FlagSet) error {
	format, _ := fs.GetString("format")
	toStdout, _ := fs.GetBool("stdout")

	outDir, _ := fs.GetString("out")
	if outDir == "" {
		outDir = a.cfg.EffectiveCwd
	} else if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(a.cfg.EffectiveCwd, outDir)
	}

	err := report.ValidateFormat(format)
	if err != nil {
		return err
	}

	tracker, err := a.openTracker()
	if err != nil {
		return err
	}

	var buf bytes.Buffer

	err = report.Export(&buf, tracker.Submissions.Table(), format)
	if errors.Is(err, report.ErrNoSubmissions) {
		return errors.New(a.prefs().Sprintf(noSubmissionsError))
	}

	if err != nil {
		return err
	}

	if toStdout {
		_, err = o.Write(buf.Bytes())

		return err
	}

	err = os.MkdirAll(outDir, 0o755)
	if err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(outDir, report.ExportFilename(time.Now(), format))

	err = atomic.WriteFile(path, &buf)
	if err != nil {
		return err
	}

	o.Println(path)

	return nil
}

var noSubmissionsError = session.Text{En: "no submissions yet", Es: "sin envíos todavía"}
