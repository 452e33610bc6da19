package httpflow

import (
	"log/slog"
	"time"
)

// RunConfig controls how a Runner executes a set of .http files.
type RunConfig struct {
	Environment string
	Vars        map[string]string
	Insecure    bool
	Transport   Transport
	Logger      *slog.Logger
	Delay       time.Duration
}

// RunOption is a functional option for configuring a RunConfig.
type RunOption func(*RunConfig)

// WithEnvironment selects an environment name from http-client.env.json.
func WithEnvironment(name string) RunOption {
	return func(c *RunConfig) { c.Environment = name }
}

// WithVars supplies additional variables that take precedence over any
// environment, .env, or OS-environment value of the same name.
func WithVars(vars map[string]string) RunOption {
	return func(c *RunConfig) {
		if c.Vars == nil {
			c.Vars = make(map[string]string, len(vars))
		}
		for k, v := range vars {
			c.Vars[k] = v
		}
	}
}

// WithInsecure disables TLS certificate verification for the default transport.
func WithInsecure(insecure bool) RunOption {
	return func(c *RunConfig) { c.Insecure = insecure }
}

// WithTransport overrides the default net/http-backed Transport, mainly for tests.
func WithTransport(t Transport) RunOption {
	return func(c *RunConfig) { c.Transport = t }
}

// WithLogger overrides the default slog.Logger used for run diagnostics.
func WithLogger(logger *slog.Logger) RunOption {
	return func(c *RunConfig) { c.Logger = logger }
}

// WithDelay sleeps d before every request after the first within a file's run.
func WithDelay(d time.Duration) RunOption {
	return func(c *RunConfig) { c.Delay = d }
}
