package cli

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/cycle-count/internal/count"
	"github.com/calvinalkan/cycle-count/internal/session"
)

var errWorkerRequired = errors.New("worker name is required")

// MyCmd returns the my command.
func MyCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("my", flag.ContinueOnError),
		Usage: "my <worker>",
		Short: "List a worker's open assignments",
		Long: "List the Assigned and In Progress assignments of <worker>, oldest first.\n" +
			"Assignments still inside their lock window are marked (locked).",
		Examples: []string{"my Karen"},
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execMy(o, a, args)
		},
	}
}

func execMy(o *IO, a *app, args []string) error {
	if len(args) == 0 {
		return errWorkerRequired
	}

	if len(args) > 1 {
		return errTooManyArgs
	}

	if !a.cfg.IsWorker(args[0]) {
		return fmt.Errorf("%w: %s", count.ErrUnknownWorker, args[0])
	}

	tracker, err := a.openTracker()
	if err != nil {
		return err
	}

	p := a.prefs()

	list := tracker.Assignments.ListActiveFor(args[0])
	if len(list) == 0 {
		o.Say(session.MsgNoActiveAssignments)

		return nil
	}

	for i := range list {
		asg := &list[i]

		line := fmt.Sprintf("%s  %s  sku=%s  expected=%s  %s  until %s",
			asg.ID, asg.Location, asg.SKU, asg.ExpectedQty, asg.Status, asg.LockUntil)
		if asg.IsLocked {
			line += " (" + p.Sprintf(session.MsgLocked) + ")"
		}

		o.Println(line)
	}

	return nil
}
