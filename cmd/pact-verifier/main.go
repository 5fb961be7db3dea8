package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/form3tech-oss/pact-provider/internal/app/configuration"
	"github.com/form3tech-oss/pact-provider/internal/app/provider"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Error(err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	config, err := configuration.Load(ctx)
	if err != nil {
		return err
	}
	if err := configuration.SetupLogging(config); err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	logger := log.WithField("provider", config.Provider)
	verifier, client, err := configuration.NewVerifier(ctx, config, logger)
	if err != nil {
		return err
	}

	logger.Infof("waiting for provider at %s", verifier.Target())
	if err := client.WaitUntilReachable(ctx, verifier.Target()); err != nil {
		return err
	}

	summary, err := verifier.Run(ctx, config.Consumer)
	if err != nil {
		return err
	}
	logSummary(logger, summary)

	if !summary.OK() {
		return errors.Errorf("%d interaction(s) failed verification", len(summary.Failed))
	}
	return nil
}

func logSummary(logger log.FieldLogger, summary provider.Summary) {
	for _, outcome := range summary.Passed {
		logger.WithFields(log.Fields{"interaction": outcome.Name, "duration": outcome.Duration}).Info("passed")
	}
	for _, outcome := range summary.Failed {
		logger.WithFields(log.Fields{"interaction": outcome.Name, "duration": outcome.Duration}).
			Errorf("failed\n%v", outcome.Err)
	}
	logger.WithField("run_id", summary.RunID).
		Infof("verified %d interactions, %d passed, %d failed",
			len(summary.Passed)+len(summary.Failed), len(summary.Passed), len(summary.Failed))
}
