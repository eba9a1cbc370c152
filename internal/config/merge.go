package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML keys.
const (
	keyGateway    = "gateway"
	keyDashboard  = "dashboard"
	keyNavigation = "navigation"
	keyLogging    = "logging"
)

// knownTopLevelKeys lists the YAML keys that correspond to Config sections.
// Other keys are ignored during merge.
//
//nolint:gochecknoglobals // Constant lookup table.
var knownTopLevelKeys = map[string]bool{
	keyGateway:    true,
	keyDashboard:  true,
	keyNavigation: true,
	keyLogging:    true,
}

// ShallowMergeYAML loads a YAML file and merges its top-level keys onto
// target. A section present in the overlay replaces the whole section in
// target; absent sections are left unchanged.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]any
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}
	if len(overlay) == 0 {
		return nil
	}

	for key, value := range overlay {
		if !knownTopLevelKeys[key] {
			continue
		}
		sectionBytes, marshalErr := yaml.Marshal(value)
		if marshalErr != nil {
			return fmt.Errorf("re-marshalling overlay section %q: %w", key, marshalErr)
		}
		if err = unmarshalSection(target, key, sectionBytes); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}
	return nil
}

// unmarshalSection decodes one section into a zero value and assigns it, so
// the overlay replaces the section instead of merging into it.
func unmarshalSection(target *Config, key string, data []byte) error {
	switch key {
	case keyGateway:
		var v GatewayConfig
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		target.Gateway = v
	case keyDashboard:
		var v DashboardConfig
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		target.Dashboard = v
	case keyNavigation:
		var v NavigationConfig
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		target.Navigation = v
	case keyLogging:
		var v LoggingConfig
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		target.Logging = v
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
