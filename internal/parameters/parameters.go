// Package parameters handles generic configuration Params, a map[string]string parsed from
// configuration strings like "material,mobility=0.05,noise=0.1".
//
// The first key of a configuration string usually selects a module (e.g. an evaluator), and the
// remaining keys are consumed by it with PopParamOr. Leftover keys are reported by CheckAllUsed.
package parameters

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Params represent generic configuration parameters.
type Params map[string]string

// NewFromConfigString create params from user's configuration string.
// Empty entries (e.g. from trailing commas) are ignored.
func NewFromConfigString(config string) Params {
	params := make(Params)
	for _, part := range strings.Split(config, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=") // Only the first '=' splits, values may contain '='.
		params[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return params
}

// String returns the params back as a configuration string, with sorted keys.
func (p Params) String() string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for ii, key := range keys {
		if p[key] == "" {
			parts[ii] = key
		} else {
			parts[ii] = key + "=" + p[key]
		}
	}
	return strings.Join(parts, ",")
}

// CheckAllUsed returns an error listing any parameter not yet popped.
func (p Params) CheckAllUsed(context string) error {
	if len(p) == 0 {
		return nil
	}
	return errors.Errorf("unknown %s parameters %q", context, p.String())
}

// Value types supported by GetParamOr and PopParamOr.
type Value interface {
	bool | int | uint64 | float32 | float64 | string | time.Duration
}

// PopParamOr is like GetParamOr, but it also deletes from the params map the retrieved parameter.
func PopParamOr[T Value](params Params, key string, defaultValue T) (T, error) {
	value, err := GetParamOr(params, key, defaultValue)
	if err != nil {
		return value, err
	}
	delete(params, key)
	return value, nil
}

// GetParamOr attempts to parse a parameter to the given type if the key is present, or returns the defaultValue
// if not.
//
// For bool types, a key without a value is interpreted as true.
func GetParamOr[T Value](params Params, key string, defaultValue T) (T, error) {
	value, exists := params[key]
	if !exists {
		return defaultValue, nil
	}
	var parsed any
	var err error
	switch any(defaultValue).(type) {
	case string:
		parsed = value
	case bool:
		switch strings.ToLower(value) {
		case "", "true", "1": // Empty value is considered "true"
			parsed = true
		case "false", "0":
			parsed = false
		default:
			err = errors.New("invalid bool")
		}
	case int:
		if value == "" {
			return defaultValue, nil
		}
		parsed, err = strconv.Atoi(value)
	case uint64:
		if value == "" {
			return defaultValue, nil
		}
		parsed, err = strconv.ParseUint(value, 10, 64)
	case float32:
		if value == "" {
			return defaultValue, nil
		}
		var f float64
		f, err = strconv.ParseFloat(value, 32)
		parsed = float32(f)
	case float64:
		if value == "" {
			return defaultValue, nil
		}
		parsed, err = strconv.ParseFloat(value, 64)
	case time.Duration:
		if value == "" {
			return defaultValue, nil
		}
		parsed, err = time.ParseDuration(value)
	}
	if err != nil {
		return defaultValue, errors.Wrapf(err, "failed to parse configuration %s=%q to %T", key, value, defaultValue)
	}
	return parsed.(T), nil
}
