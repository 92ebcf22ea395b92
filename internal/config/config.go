package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Strategy names the execution model used to schedule probes.
type Strategy string

const (
	StrategySequential Strategy = "sequential"
	StrategyParallel   Strategy = "parallel"
	StrategyAsync      Strategy = "async"
)

var strategyAliases = map[string]Strategy{
	"sequential":   StrategySequential,
	"linear":       StrategySequential,
	"parallel":     StrategyParallel,
	"process":      StrategyParallel,
	"multiprocess": StrategyParallel,
	"async":        StrategyAsync,
	"asyncio":      StrategyAsync,
}

// NormalizeStrategy resolves aliases. Unknown values are returned lowercased
// so that Validate can report them.
func NormalizeStrategy(value string) Strategy {
	key := strings.ToLower(strings.TrimSpace(value))
	if s, ok := strategyAliases[key]; ok {
		return s
	}
	return Strategy(key)
}

// OutputFormat selects how the report is rendered.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
)

const (
	DefaultCount    = 1
	DefaultTimeout  = 10 * time.Second
	highVolumeLimit = 10000
)

type Config struct {
	Hosts       []string          `mapstructure:"hosts"`
	HostsFile   string            `mapstructure:"file"`
	Count       int               `mapstructure:"count"`
	Strategy    Strategy          `mapstructure:"strategy"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	Headers     map[string]string `mapstructure:"headers"`
	OutFile     string            `mapstructure:"out"`
	Format      OutputFormat      `mapstructure:"format"`
	HTMLOutput  string            `mapstructure:"html_output"`
	ChartOutput string            `mapstructure:"chart_output"`
	Progress    bool              `mapstructure:"progress"`
	Thresholds  []string          `mapstructure:"thresholds"`
	Log         LogConfig         `mapstructure:"log"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	ConfigFile  string            `mapstructure:"-"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`     // OTLP collector host:port
	Protocol    string  `mapstructure:"protocol"`     // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"` // defaults to hostprobe
	SampleRate  float64 `mapstructure:"sample_rate"`  // 0.0 - 1.0
	Insecure    bool    `mapstructure:"insecure"`     // plaintext exporter connection
	Propagate   *bool   `mapstructure:"propagate"`    // inject traceparent; defaults to Enabled()
}

// Enabled reports whether spans should be exported.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate
	}
	return t.Enabled()
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if len(c.Hosts) == 0 && strings.TrimSpace(c.HostsFile) == "" {
		issues = append(issues, "hosts or file is required (use --help for usage information)")
	}

	if c.Count < 1 {
		issues = append(issues, "count must be a positive integer")
	}
	if c.Timeout <= 0 {
		issues = append(issues, "timeout must be > 0")
	}

	switch c.Strategy {
	case StrategySequential, StrategyParallel, StrategyAsync:
	default:
		issues = append(issues, fmt.Sprintf("strategy: must be 'sequential', 'parallel', or 'async', got %q", c.Strategy))
	}

	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		issues = append(issues, fmt.Sprintf("format: must be 'text', 'json', or 'yaml', got %q", c.Format))
	}

	issues = append(issues, validateLogConfig(c.Log)...)
	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if hosts := len(c.Hosts); hosts > 0 && c.Count > 0 && hosts*c.Count > highVolumeLimit {
		fmt.Fprintf(os.Stderr, "WARNING: %d requests configured across %d hosts. Ensure you have authorization to probe the target systems.\n", hosts*c.Count, hosts)
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateLogConfig(l LogConfig) []string {
	var issues []string
	switch strings.ToLower(l.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		issues = append(issues, fmt.Sprintf("log: level must be 'debug', 'info', 'warn', or 'error', got %q", l.Level))
	}
	switch strings.ToLower(l.Format) {
	case "", "text", "json":
	default:
		issues = append(issues, fmt.Sprintf("log: format must be 'text' or 'json', got %q", l.Format))
	}
	return issues
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing: sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	return issues
}
