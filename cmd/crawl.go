// Package cmd defines and implements the CLI commands for the plancrawl
// executable.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civicgrid/planportal-crawler/internal/app"
	"github.com/civicgrid/planportal-crawler/internal/portal"
	"github.com/civicgrid/planportal-crawler/internal/progress"
	"github.com/civicgrid/planportal-crawler/internal/progress/sinks"
	"github.com/civicgrid/planportal-crawler/internal/ratelimit"
	"github.com/civicgrid/planportal-crawler/internal/reconcile"
)

var passFlag string

// newCrawlCmd creates and configures the 'crawl' subcommand. It runs the
// validated pass, the decided pass, or both against the configured portal.
func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Runs the weekly-list crawl against the portal",
		Long: `Walks the portal's weekly lists and reconciles them into the case store.
The validated pass inserts newly validated applications with their
application forms; the decided pass attaches decision notices to known
cases and inserts decided cases seen for the first time.`,

		RunE: runCrawlCommand,
	}
	cmd.Flags().StringVar(&passFlag, "pass", "all", "which pass to run: validated, decided, or all")
	return cmd
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	if passFlag != "validated" && passFlag != "decided" && passFlag != "all" {
		return fmt.Errorf("invalid --pass value %q", passFlag)
	}

	engine, reporter, err := buildCrawlEngine(cmd.Context(), appInstance)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := reporter.Close(cmd.Context()); cerr != nil {
			appInstance.Logger().Warn("Failed to close progress reporter", zap.Error(cerr))
		}
	}()

	if passFlag == "validated" || passFlag == "all" {
		if err := runPass(cmd.Context(), appInstance.Logger(), engine.RunValidatedPass); err != nil {
			return err
		}
	}
	if passFlag == "decided" || passFlag == "all" {
		if err := runPass(cmd.Context(), appInstance.Logger(), engine.RunDecidedPass); err != nil {
			return err
		}
	}

	appInstance.Logger().Info("Crawl command finished.")
	return nil
}

func runPass(ctx context.Context, logger *zap.Logger, run func(context.Context) (*reconcile.PassSummary, error)) error {
	summary, err := run(ctx)
	if err != nil {
		return fmt.Errorf("run pass: %w", err)
	}
	logger.Info("Pass summary",
		zap.String("pass", summary.Pass),
		zap.Int("total", summary.Total),
		zap.Int("inserted", summary.Inserted),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	return nil
}

func buildCrawlEngine(ctx context.Context, a *app.App) (*reconcile.Engine, *progress.Reporter, error) {
	cfg := a.Config()
	logger := a.Logger()

	gate := ratelimit.NewGate(cfg.RequestInterval())
	session, err := portal.NewSession(portal.Config{
		BaseURL:        cfg.Portal.BaseURL,
		ListingPath:    cfg.Portal.ListingPath,
		Council:        cfg.Portal.Council,
		ActorID:        cfg.Portal.ActorID,
		UserAgent:      cfg.Portal.UserAgent,
		Timeout:        cfg.RequestTimeout(),
		ResultsPerPage: cfg.Portal.ResultsPerPage,
	}, gate, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init portal session: %w", err)
	}
	// The portal refuses search submissions without the bootstrap cookies.
	if err := session.Bootstrap(ctx); err != nil {
		return nil, nil, fmt.Errorf("bootstrap portal session: %w", err)
	}

	promSink, err := sinks.NewPrometheusSink(a.Registry())
	if err != nil {
		return nil, nil, fmt.Errorf("init prometheus sink: %w", err)
	}
	reporter := progress.NewReporter(logger, sinks.NewLogSink(logger), promSink)

	uploader := reconcile.NewUploader(session, a.Blobs(), cfg.Storage.GCSBucket, logger)
	engine := reconcile.NewEngine(session, a.Store(), uploader, reporter, logger, reconcile.Config{
		ValidatedKeyword: cfg.Portal.ValidatedKeyword,
		DecidedKeyword:   cfg.Portal.DecidedKeyword,
	})
	return engine, reporter, nil
}
