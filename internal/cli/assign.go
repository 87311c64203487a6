package cli

import (
	"context"
	"errors"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/cycle-count/internal/count"
)

var errTooManyArgs = errors.New("too many arguments")

// AssignCmd returns the assign command.
func AssignCmd(a *app) *Command {
	fs := flag.NewFlagSet("assign", flag.ContinueOnError)
	fs.String("to", "", "Worker to assign the count to (required)")
	fs.String("sku", "", "SKU expected at the location")
	fs.String("expected", "", "Expected quantity")

	return &Command{
		Flags: fs,
		Usage: "assign <location> --to <name> [flags]",
		Short: "Assign a location count to a worker",
		Long: "Create an assignment and print its ID. The assignment is locked for 20 minutes;\n" +
			"the lock is informational and blocks nothing.",
		Examples: []string{
			"assign 11400804 --to Karen",
			"assign 11400804 --to Luis --sku 100-2231 --expected 48",
		},
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execAssign(o, a, fs, args)
		},
	}
}

func execAssign(o *IO, a *app, fs *flag.FlagSet, args []string) error {
	if len(args) > 1 {
		return errTooManyArgs
	}

	var location string
	if len(args) == 1 {
		location = args[0]
	}

	to, _ := fs.GetString("to")
	sku, _ := fs.GetString("sku")
	expected, _ := fs.GetString("expected")

	in := count.NewAssignment{
		Location:    location,
		SKU:         sku,
		ExpectedQty: expected,
		AssignedTo:  strings.TrimSpace(to),
	}

	err := in.Validate(a.cfg.Workers)
	if err != nil {
		return err
	}

	tracker, err := a.openTracker()
	if err != nil {
		return err
	}

	id, err := tracker.Assignments.Create(in)
	if err != nil {
		return err
	}

	o.Println(id)

	return nil
}
