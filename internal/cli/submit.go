package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/cycle-count/internal/count"
)

// SubmitCmd returns the submit command.
func SubmitCmd(a *app) *Command {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.String("counter", "", "Worker who performed the count (required)")
	fs.String("qty", "", "Counted quantity; decimals are truncated (required)")
	fs.String("issue", count.IssueNone, "Issue type (None|Over|Short|Damage|Other)")
	fs.String("pallet", "", "Pallet actually found")
	fs.String("lot", "", "Lot actually found")
	fs.String("note", "", "Free-text note")

	return &Command{
		Flags: fs,
		Usage: "submit <assignment-id> --counter <name> --qty <n> [flags]",
		Short: "Record a count and complete its assignment",
		Long: "Record a count result and print the submission ID. The referenced assignment\n" +
			"is marked Completed. An unknown assignment ID is recorded as-is.",
		Examples: []string{
			"submit A0J8Z3K5QW2XM --counter Karen --qty 48",
			"submit A0J8Z3K5QW2XM --counter Luis --qty 46 --issue Short --note \"two cases crushed\"",
		},
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execSubmit(o, a, fs, args)
		},
	}
}

func execSubmit(o *IO, a *app, fs *flag.FlagSet, args []string) error {
	if len(args) > 1 {
		return errTooManyArgs
	}

	form := count.SubmissionForm{}
	if len(args) == 1 {
		form.AssignmentID = args[0]
	}

	form.Counter, _ = fs.GetString("counter")
	form.CountedQty, _ = fs.GetString("qty")
	form.IssueType, _ = fs.GetString("issue")
	form.ActualPallet, _ = fs.GetString("pallet")
	form.ActualLot, _ = fs.GetString("lot")
	form.Note, _ = fs.GetString("note")

	in, err := form.Parse(a.cfg.Workers)
	if err != nil {
		return err
	}

	tracker, err := a.openTracker()
	if err != nil {
		return err
	}

	id, err := tracker.Submissions.Create(in)
	if err != nil && id == "" {
		return err
	}

	if err != nil {
		o.Warn("assignment "+in.AssignmentID+" is still open", err.Error())
	}

	o.Println(id)

	return nil
}
