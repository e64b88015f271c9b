package app

import (
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"ridepool/internal/config"
)

// NewNewRelicApp starts the New Relic agent when it is enabled and licensed.
// It returns nil otherwise; every consumer treats a nil app as disabled.
func NewNewRelicApp(cfg config.NewRelicConfig, logger logrus.FieldLogger) *newrelic.Application {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return nil
	}

	nrApp, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		logger.WithError(err).Warn("failed to initialize New Relic")
		return nil
	}

	logger.WithField("app", cfg.AppName).Info("New Relic enabled")
	return nrApp
}
