package config

import (
	"encoding/json"
	"fmt"
)

// ListValues returns the config as a flat dot-keyed map, masking secrets
// when mask is true. Used by `chartadvisor config list`.
func ListValues(cfg *Config, mask bool) (map[string]any, error) {
	flat, err := toFlat(cfg)
	if err != nil {
		return nil, err
	}
	if mask {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

// GetValue loads the config at path and returns the value for the
// dot-separated key.
func GetValue(path, key string) (any, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	flat, err := toFlat(cfg)
	if err != nil {
		return nil, err
	}
	val, ok := flat[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	if IsSecretKey(key) {
		return MaskSecrets(map[string]any{key: val})[key], nil
	}
	return val, nil
}

// SetValue loads the config at path, sets the dot-separated key to the given
// value, validates, and saves. The raw value string is decoded as JSON when
// possible so numbers and booleans round-trip with their proper types.
func SetValue(path, key, raw string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}

	flat, err := toFlat(cfg)
	if err != nil {
		return err
	}
	if _, ok := flat[key]; !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}

	var val any
	if err := json.Unmarshal([]byte(raw), &val); err != nil {
		val = raw
	}
	flat[key] = val

	nested := Unflatten(flat)
	data, err := json.Marshal(nested)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	updated := defaults()
	if err := json.Unmarshal(data, updated); err != nil {
		return fmt.Errorf("apply config value: %w", err)
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	return Save(path, updated)
}

// toFlat round-trips the config through JSON into a flat dot-keyed map.
func toFlat(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return Flatten(m), nil
}
