// Command courier sends one email per row of a contact sheet, resuming
// where the previous run stopped.
//
// Usage:
//
//	courier [flags] <contacts.csv|contacts.xlsx>
//
// SIGINT or SIGTERM cancels the run after the message in flight; failures
// collected so far are still written to the report.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/courier/internal/config"
	"github.com/dmitrymomot/courier/internal/control"
	"github.com/dmitrymomot/courier/pkg/contact"
	"github.com/dmitrymomot/courier/pkg/dispatch"
	"github.com/dmitrymomot/courier/pkg/logger"
	"github.com/dmitrymomot/courier/pkg/mailer"
	"github.com/dmitrymomot/courier/pkg/mailer/smtp"
	"github.com/dmitrymomot/courier/pkg/netprobe"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return exitUsage
	}

	cfg, err := config.Load(opts.configPath, nil)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	opts.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	runID := uuid.NewString()
	log, err := logger.New(cfg.Log, stderr, logger.RunIDExtractor())
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer logger.Flush(2 * time.Second)
	ctx = logger.WithRunID(ctx, runID)

	summary, err := dispatchRun(ctx, cfg, opts.reset, runID, log, stdout)
	if err != nil {
		log.ErrorContext(ctx, "courier failed", slog.Any("error", err))
		return exitError
	}
	if summary.Fatal != nil {
		return exitError
	}

	fmt.Fprintf(stdout, "Sent %d of %d, %d failed", summary.Sent, summary.Total, len(summary.Failures))
	if summary.Cancelled {
		fmt.Fprintf(stdout, ", cancelled at row %d", summary.Cursor)
	}
	fmt.Fprintln(stdout)
	return exitOK
}

func dispatchRun(ctx context.Context, cfg config.Config, reset bool, runID string, log *slog.Logger, stdout io.Writer) (dispatch.Summary, error) {
	store, closeStore, err := openCheckpoint(ctx, cfg.Checkpoint, log)
	if err != nil {
		return dispatch.Summary{}, err
	}
	defer closeStore()

	if reset {
		if err := store.Reset(ctx); err != nil {
			return dispatch.Summary{}, err
		}
		log.InfoContext(ctx, "checkpoint reset")
	}

	sink, err := buildSink(cfg.Report)
	if err != nil {
		return dispatch.Summary{}, err
	}
	transport, err := smtp.New(cfg.SMTP)
	if err != nil {
		return dispatch.Summary{}, err
	}
	source, err := contact.Open(cfg.Contacts)
	if err != nil {
		return dispatch.Summary{}, err
	}
	probe := buildProbe(cfg.Probe)

	ctl := dispatch.NewControl()
	tracker := control.NewTracker(runID)

	opts := []dispatch.Option{
		dispatch.WithControl(ctl),
		dispatch.WithLogger(log),
		dispatch.WithRenderer(mailer.NewOSRenderer(cfg.TemplatesDir)),
		dispatch.WithObserver(dispatch.Observers(newTerminal(stdout), tracker)),
		dispatch.WithProbeInterval(cfg.Probe.Interval),
		dispatch.WithAttemptTimeout(cfg.AttemptTimeout),
	}
	if sink != nil {
		opts = append(opts, dispatch.WithFailureSink(sink))
	}
	eng, err := dispatch.New(transport, probe, store, opts...)
	if err != nil {
		return dispatch.Summary{}, err
	}

	srvCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		select {
		case sig := <-signals:
			log.InfoContext(ctx, "signal received, cancelling run", slog.String("signal", sig.String()))
			ctl.Cancel()
		case <-srvCtx.Done():
		}
	}()

	var g errgroup.Group
	if cfg.Control.Addr != "" {
		srv := control.New(ctl, tracker,
			control.WithAddress(cfg.Control.Addr),
			control.WithLogger(log),
			control.WithShutdownTimeout(cfg.Control.ShutdownTimeout),
			control.WithReadyTimeout(cfg.Control.ReadyTimeout),
			control.WithChecks(control.Checks{
				"network":    netprobe.Healthcheck(probe),
				"checkpoint": store.Healthcheck,
			}),
		)
		g.Go(func() error { return srv.Run(srvCtx) })
	}

	var summary dispatch.Summary
	g.Go(func() error {
		defer stopServer()
		summary = eng.Run(ctx, source, cfg.Delay)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.ErrorContext(ctx, "control server failed", slog.Any("error", err))
	}
	return summary, nil
}
