package config

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
// Flags take precedence over values read from the config file.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := &Config{
		Headers:    map[string]string{},
		Count:      DefaultCount,
		Strategy:   StrategySequential,
		Timeout:    DefaultTimeout,
		Format:     FormatText,
		ConfigFile: configPath,
		Log:        LogConfig{Format: "text"},
		Tracing:    TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.Hosts = splitHosts(cfg.Hosts)
	resolveHostSource(cfg, flagSet)
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "hosts"); ok {
		val, err := settingList(raw)
		if err != nil {
			return fmt.Errorf("hosts: %w", err)
		}
		cfg.Hosts = val
	}

	if raw, ok := lookupSetting(settings, "file", "hostsfile", "hosts_file", "hosts-file"); ok {
		val, err := settingString(raw)
		if err != nil {
			return fmt.Errorf("file: %w", err)
		}
		cfg.HostsFile = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "count"); ok {
		val, err := settingPositiveInt(raw)
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		cfg.Count = val
	}

	if raw, ok := lookupSetting(settings, "strategy", "mode"); ok {
		val, err := settingString(raw)
		if err != nil {
			return fmt.Errorf("strategy: %w", err)
		}
		if strings.TrimSpace(val) != "" {
			cfg.Strategy = NormalizeStrategy(val)
		}
	}

	if raw, ok := lookupSetting(settings, "timeout"); ok {
		dur, err := settingDuration(raw)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = dur
	}

	if raw, ok := lookupSetting(settings, "headers"); ok {
		hdrs, err := settingHeaders(raw)
		if err != nil {
			return fmt.Errorf("headers: %w", err)
		}
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for k, v := range hdrs {
			cfg.Headers[http.CanonicalHeaderKey(k)] = v
		}
	}

	if raw, ok := lookupSetting(settings, "out", "output"); ok {
		val, err := settingString(raw)
		if err != nil {
			return fmt.Errorf("out: %w", err)
		}
		cfg.OutFile = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "format"); ok {
		val, err := settingString(raw)
		if err != nil {
			return fmt.Errorf("format: %w", err)
		}
		if strings.TrimSpace(val) != "" {
			cfg.Format = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
		}
	}

	if raw, ok := lookupSetting(settings, "htmloutput", "html_output", "html-output"); ok {
		val, err := settingString(raw)
		if err != nil {
			return fmt.Errorf("htmlOutput: %w", err)
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "chartoutput", "chart_output", "chart-output"); ok {
		val, err := settingString(raw)
		if err != nil {
			return fmt.Errorf("chartOutput: %w", err)
		}
		cfg.ChartOutput = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "progress"); ok {
		val, err := settingBool(raw)
		if err != nil {
			return fmt.Errorf("progress: %w", err)
		}
		cfg.Progress = val
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		thresholds, err := settingList(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = thresholds
	}

	if raw, ok := lookupSetting(settings, "log"); ok {
		logCfg, err := parseLogConfig(raw)
		if err != nil {
			return fmt.Errorf("log: %w", err)
		}
		if logCfg.Level != "" {
			cfg.Log.Level = logCfg.Level
		}
		if logCfg.Format != "" {
			cfg.Log.Format = logCfg.Format
		}
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		if err := applyTracingSettings(&cfg.Tracing, raw); err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
	}

	return nil
}

func parseLogConfig(value interface{}) (LogConfig, error) {
	settings, err := settingSection(value)
	if err != nil {
		return LogConfig{}, err
	}
	var cfg LogConfig
	if raw, ok := settings["level"]; ok {
		val, err := settingString(raw)
		if err != nil {
			return LogConfig{}, fmt.Errorf("level: %w", err)
		}
		cfg.Level = strings.ToLower(strings.TrimSpace(val))
	}
	if raw, ok := settings["format"]; ok {
		val, err := settingString(raw)
		if err != nil {
			return LogConfig{}, fmt.Errorf("format: %w", err)
		}
		cfg.Format = strings.ToLower(strings.TrimSpace(val))
	}
	return cfg, nil
}

func applyTracingSettings(cfg *TracingConfig, value interface{}) error {
	settings, err := settingSection(value)
	if err != nil {
		return err
	}
	if raw, ok := settings["endpoint"]; ok {
		val, err := settingString(raw)
		if err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
		cfg.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := settings["protocol"]; ok {
		val, err := settingString(raw)
		if err != nil {
			return fmt.Errorf("protocol: %w", err)
		}
		cfg.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(settings, "service_name", "servicename", "service-name"); ok {
		val, err := settingString(raw)
		if err != nil {
			return fmt.Errorf("service_name: %w", err)
		}
		cfg.ServiceName = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "sample_rate", "samplerate", "sample-rate"); ok {
		val, err := settingFloat(raw)
		if err != nil {
			return fmt.Errorf("sample_rate: %w", err)
		}
		cfg.SampleRate = val
	}
	if raw, ok := settings["insecure"]; ok {
		val, err := settingBool(raw)
		if err != nil {
			return fmt.Errorf("insecure: %w", err)
		}
		cfg.Insecure = val
	}
	if raw, ok := settings["propagate"]; ok {
		val, err := settingBool(raw)
		if err != nil {
			return fmt.Errorf("propagate: %w", err)
		}
		cfg.Propagate = &val
	}
	return nil
}

// resolveHostSource leaves at most one of Hosts and HostsFile set. A --file
// flag replaces hosts read from the config file, and otherwise a host list
// wins over a hosts file.
func resolveHostSource(cfg *Config, fs *pflag.FlagSet) {
	if fs.Changed("file") && !fs.Changed("hosts") && cfg.HostsFile != "" {
		cfg.Hosts = nil
		return
	}
	if len(cfg.Hosts) > 0 {
		cfg.HostsFile = ""
	}
}

// splitHosts flattens comma separated entries and drops blanks.
func splitHosts(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
