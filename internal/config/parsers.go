// Package config provides configuration loading and parsing for hostprobe.
package config

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// positiveIntPattern matches a decimal positive integer with no sign or
// leading zero, the only form accepted for counts.
var positiveIntPattern = regexp.MustCompile(`^[1-9]\d*$`)

// lookupSetting returns the first of keys present in settings. Viper lowercases
// keys, so each candidate is also tried lowercased.
func lookupSetting(settings map[string]interface{}, keys ...string) (interface{}, bool) {
	for _, key := range keys {
		if val, ok := settings[key]; ok {
			return val, true
		}
		if val, ok := settings[strings.ToLower(key)]; ok {
			return val, true
		}
	}
	return nil, false
}

// settingString renders a scalar setting as trimmed text.
func settingString(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case bool, int, int64, float64:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("expected a scalar value, got %T", value)
	}
}

// settingPositiveInt accepts whole positive numbers only. Fractions, zero,
// negatives and non-numeric text are rejected rather than truncated.
func settingPositiveInt(value interface{}) (int, error) {
	invalid := fmt.Errorf("must be a positive integer, got %v", value)
	switch v := value.(type) {
	case int:
		if v < 1 {
			return 0, invalid
		}
		return v, nil
	case int64:
		if v < 1 || v > math.MaxInt32 {
			return 0, invalid
		}
		return int(v), nil
	case float64:
		if v < 1 || v != math.Trunc(v) || v > math.MaxInt32 {
			return 0, invalid
		}
		return int(v), nil
	case string:
		s := strings.TrimSpace(v)
		if !positiveIntPattern.MatchString(s) {
			return 0, fmt.Errorf("must be a positive integer, got %q", v)
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, invalid
		}
		return n, nil
	default:
		return 0, invalid
	}
}

// settingFloat reads a number such as the tracing sample rate.
func settingFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("expected a number, got %T", value)
	}
}

func settingBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	default:
		return false, fmt.Errorf("expected true or false, got %T", value)
	}
}

// settingDuration reads a timeout. Text goes through time.ParseDuration and
// bare numbers are seconds, fractions included.
func settingDuration(value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case time.Duration:
		return v, nil
	case string:
		return time.ParseDuration(strings.TrimSpace(v))
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("expected a duration, got %T", value)
	}
}

// settingHeaders reads the headers table. Keys come back lowercased and the
// caller canonicalizes them.
func settingHeaders(value interface{}) (map[string]string, error) {
	table, err := settingSection(value)
	if err != nil {
		return nil, err
	}
	headers := make(map[string]string, len(table))
	for key, raw := range table {
		if key == "" {
			return nil, fmt.Errorf("header key cannot be empty")
		}
		val, err := settingString(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		headers[key] = val
	}
	return headers, nil
}

// settingList reads a list of strings. A single string is a one-element list;
// comma splitting for hosts happens later.
func settingList(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, len(v))
		for i, item := range v {
			s, err := settingString(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list, got %T", value)
	}
}

// settingSection reads a nested table such as log or tracing, with keys
// trimmed and lowercased.
func settingSection(value interface{}) (map[string]interface{}, error) {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, val := range v {
			out[strings.ToLower(strings.TrimSpace(key))] = val
		}
		return out, nil
	case map[string]string:
		out := make(map[string]interface{}, len(v))
		for key, val := range v {
			out[strings.ToLower(strings.TrimSpace(key))] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a table, got %T", value)
	}
}
