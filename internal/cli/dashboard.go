package cli

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/cycle-count/internal/report"
)

// DashboardCmd returns the dashboard command.
func DashboardCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("dashboard", flag.ContinueOnError),
		Usage: "dashboard",
		Short: "Show assignment and submission totals",
		Long: "Show how many assignments exist, how many are completed and how many are pending,\n" +
			"then a breakdown per worker and per issue type.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execDashboard(ctx, o, a)
		},
	}
}

func execDashboard(ctx context.Context, o *IO, a *app) (err error) {
	tracker, err := a.openTracker()
	if err != nil {
		return err
	}

	ix, err := report.OpenIndex(ctx, a.cfg.IndexPath)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, ix.Close())
	}()

	st, err := ix.Refresh(ctx, tracker)
	if err != nil {
		return err
	}

	o.Printf("Assigned: %d  |  Completed: %d  |  Pending: %d\n", st.Assigned, st.Completed, st.Pending)

	if len(st.ByWorker) > 0 {
		o.Println()
		o.Println("By worker:")

		for _, ws := range st.ByWorker {
			o.Printf("  %-12s open=%d completed=%d\n", ws.Worker, ws.Open, ws.Completed)
		}
	}

	if len(st.ByIssue) > 0 {
		o.Println()
		o.Println("By issue:")

		for _, is := range st.ByIssue {
			o.Printf("  %-12s count=%d variance=%+d (%d compared)\n", is.IssueType, is.Count, is.Variance, is.Compared)
		}
	}

	return nil
}
