package config

import "strings"

// ObservabilityConfig groups configuration that controls metrics emission.
type ObservabilityConfig struct {
	Metrics ObservabilityMetricsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
}

// ObservabilityMetricsConfig controls the StatsD sink for HTTP and run lifecycle metrics.
type ObservabilityMetricsConfig struct {
	Enabled       bool   `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"false"`
	StatsdAddress string `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
	Prefix        string `env:"OBSERVABILITY_METRICS_PREFIX"         envDefault:"harvester"`
	// Tags are attached to every metric, e.g. "env:prod,region:us-east".
	Tags map[string]string `env:"OBSERVABILITY_METRICS_TAGS"`
}

// Sanitize trims fields, drops blank tag keys and disables emission without an address.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	c.Prefix = strings.Trim(strings.TrimSpace(c.Prefix), ".")
	if len(c.Tags) > 0 {
		tags := make(map[string]string, len(c.Tags))
		for k, v := range c.Tags {
			if key := strings.TrimSpace(k); key != "" {
				tags[key] = strings.TrimSpace(v)
			}
		}
		c.Tags = tags
	}
	if c.StatsdAddress == "" {
		c.Enabled = false
	}
}

// IsEnabled returns true when metrics emission is active after sanitisation.
func (c *ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}
