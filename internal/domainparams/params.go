// Package domainparams parses the domain-sizing configuration string
// that cmd/pomcp accepts per problem (the built-in domains:
// rocksample's corridor length and rock count, bandit's arm count), the same
// comma-separated key=value convention used elsewhere for component
// configuration strings, repurposed here for domain construction instead.
package domainparams

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Params is a generic, stringly-typed configuration bag: one entry per
// size or variant knob, parsed lazily by whichever domain constructor
// asks for it.
type Params map[string]string

// NewFromConfigString parses "key=value,key2=value2,flag" into a Params
// map. A bare key with no '=' is recorded with an empty value (treated
// as boolean true by GetParamOr/PopParamOr).
func NewFromConfigString(config string) Params {
	params := make(Params)
	if config == "" {
		return params
	}
	for _, part := range strings.Split(config, ",") {
		subParts := strings.SplitN(part, "=", 2)
		if len(subParts) == 1 {
			params[subParts[0]] = ""
		} else {
			params[subParts[0]] = subParts[1]
		}
	}
	return params
}

// PopParamOr is like GetParamOr, but also deletes the retrieved key from
// params. Domain constructors use this to consume every recognized
// parameter and then report any leftovers as an unknown-flag error.
func PopParamOr[T interface {
	bool | int | float32 | float64 | string
}](params Params, key string, defaultValue T) (T, error) {
	value, err := GetParamOr(params, key, defaultValue)
	if err != nil {
		return value, err
	}
	delete(params, key)
	return value, nil
}

// GetParamOr parses the parameter named key to type T if present,
// or returns defaultValue if absent.
//
// For bool types, a key present with no value is interpreted as true.
func GetParamOr[T interface {
	bool | int | float32 | float64 | string
}](params Params, key string, defaultValue T) (T, error) {
	vAny := (any)(defaultValue)
	var zero T
	toT := func(v any) T { return v.(T) }
	switch vAny.(type) {
	case string:
		if value, exists := params[key]; exists {
			return toT(value), nil
		}
	case int:
		if value, exists := params[key]; exists && value != "" {
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return zero, errors.Wrapf(err, "failed to parse domain parameter %s=%q as int", key, value)
			}
			return toT(parsed), nil
		}
	case float32:
		if value, exists := params[key]; exists && value != "" {
			parsed, err := strconv.ParseFloat(value, 32)
			if err != nil {
				return zero, errors.Wrapf(err, "failed to parse domain parameter %s=%q as float", key, value)
			}
			return toT(float32(parsed)), nil
		}
	case float64:
		if value, exists := params[key]; exists && value != "" {
			parsed, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return zero, errors.Wrapf(err, "failed to parse domain parameter %s=%q as float", key, value)
			}
			return toT(parsed), nil
		}
	case bool:
		if value, exists := params[key]; exists {
			if value == "" || strings.EqualFold(value, "true") || value == "1" {
				return toT(true), nil
			}
			if strings.EqualFold(value, "false") || value == "0" {
				return toT(false), nil
			}
			return defaultValue, errors.Errorf("failed to parse domain parameter %s=%q as bool", key, value)
		}
	}
	return defaultValue, nil
}
