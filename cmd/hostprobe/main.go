package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/torosent/hostprobe/internal/config"
	"github.com/torosent/hostprobe/internal/hosts"
	"github.com/torosent/hostprobe/internal/logging"
	"github.com/torosent/hostprobe/internal/metrics"
	"github.com/torosent/hostprobe/internal/output"
	"github.com/torosent/hostprobe/internal/probe"
	"github.com/torosent/hostprobe/internal/runner"
	"github.com/torosent/hostprobe/internal/threshold"
	"github.com/torosent/hostprobe/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

// clientFactory overrides the transport used by every strategy. Tests point
// it at a local server.
var clientFactory func(timeout time.Duration) probe.Doer

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.Log, stderr)

	validator := hosts.NewValidator()
	targets, err := hosts.Resolve(validator, cfg.Hosts, cfg.HostsFile)
	if err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return fmt.Errorf("invalid thresholds: %w", err)
	}

	kind, err := runner.ParseKind(string(cfg.Strategy))
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("tracing shutdown failed")
		}
	}()

	tracker := metrics.NewTracker(len(targets) * cfg.Count)
	strategy, err := runner.New(kind, runner.Options{
		Timeout:       cfg.Timeout,
		Headers:       cfg.Headers,
		Propagate:     provider.ShouldPropagate(),
		Logger:        logger,
		Tracer:        provider.Tracer(),
		Observer:      tracker,
		ClientFactory: clientFactory,
	})
	if err != nil {
		return err
	}

	var progress *output.ProgressReporter
	if cfg.Progress {
		progress = output.NewProgressReporter(tracker, progressInterval, stderr)
		progress.Start()
	}

	result, runErr := strategy.Run(ctx, targets, cfg.Count)
	if progress != nil {
		progress.Stop()
	}
	if runErr != nil {
		return fmt.Errorf("probe run: %w", runErr)
	}

	results := threshold.NewEvaluator(thresholds).Evaluate(result.Summaries)

	var report bytes.Buffer
	if err := output.Render(&report, cfg.Format, result, results); err != nil {
		return err
	}
	if cfg.OutFile != "" {
		if err := output.WriteFile(ctx, cfg.OutFile, report.Bytes()); err != nil {
			return err
		}
		logger.WithField("path", cfg.OutFile).Info("report written")
	} else if _, err := stdout.Write(report.Bytes()); err != nil {
		return err
	}

	if cfg.HTMLOutput != "" {
		if err := writeHTMLReport(ctx, cfg.HTMLOutput, output.NewReport(result, results)); err != nil {
			return err
		}
		logger.WithField("path", cfg.HTMLOutput).Info("HTML report written")
	}
	if cfg.ChartOutput != "" {
		if err := writeChart(ctx, cfg.ChartOutput, result.Summaries); err != nil {
			return err
		}
		logger.WithField("path", cfg.ChartOutput).Info("chart written")
	}

	if cfg.Format == config.FormatText {
		output.PrintThresholdResults(stdout, results)
	}
	if !threshold.AllPassed(results) {
		return errors.New("one or more thresholds failed")
	}
	return nil
}

func writeHTMLReport(ctx context.Context, path string, rep output.Report) error {
	var buf bytes.Buffer
	if err := output.GenerateHTMLReport(&buf, rep); err != nil {
		return fmt.Errorf("html report: %w", err)
	}
	return output.WriteFile(ctx, path, buf.Bytes())
}

func writeChart(ctx context.Context, path string, summaries []metrics.HostSummary) error {
	var buf bytes.Buffer
	if err := output.RenderChart(&buf, summaries); err != nil {
		return err
	}
	return output.WriteFile(ctx, path, buf.Bytes())
}
