package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/calvinalkan/cycle-count/internal/logging"
	"github.com/calvinalkan/cycle-count/internal/report"
	"github.com/calvinalkan/cycle-count/internal/server"
	"github.com/calvinalkan/cycle-count/internal/session"
)

// ServeCmd returns the serve command.
func ServeCmd(a *app) *Command {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.Int("port", 0, "Port to listen on (default: config port)")
	fs.String("host", "", "Interface to bind (default: all)")

	return &Command{
		Flags: fs,
		Usage: "serve [flags]",
		Short: "Run the HTTP API",
		Long:  "Serve the JSON API until interrupted (SIGINT/SIGTERM), then shut down gracefully.",
		Examples: []string{
			"serve",
			"serve --host 127.0.0.1 --port 9090",
		},
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execServe(ctx, o, a, fs)
		},
	}
}

func execServe(ctx context.Context, o *IO, a *app, fs *flag.FlagSet) (err error) {
	port := a.cfg.Port
	if fs.Changed("port") {
		port, _ = fs.GetInt("port")
	}

	host, _ := fs.GetString("host")

	tracker, err := a.openTracker()
	if err != nil {
		return err
	}

	ix, err := report.OpenIndex(context.WithoutCancel(ctx), a.cfg.IndexPath)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, ix.Close())
	}()

	zl, err := a.logger()
	if err != nil {
		return err
	}

	logger := logging.New(zl)
	logger.Info(ctx, "dashboard index opened", zap.String("path", ix.Path()))

	srv := server.New(server.Options{
		Workers:  a.cfg.Workers,
		Tracker:  tracker,
		Index:    ix,
		Sessions: session.NewStore(a.cfg.Lang),
		Logger:   logger,
	})

	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	o.Println("listening on", ln.Addr().String())

	return server.Serve(ctx, ln, srv.Handler(), logger)
}
