package app

import (
	"github.com/newrelic/go-agent/v3/newrelic"

	"paybot/internal/config"
)

// NewNewRelicApp starts the New Relic agent. It returns nil when New Relic
// is disabled.
func NewNewRelicApp(cfg config.NewRelicConfig) (*newrelic.Application, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
}
