package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names used for shallow merge.
const (
	keyCatalog       = "catalog"
	keyMatcher       = "matcher"
	keyInput         = "input"
	keyExport        = "export"
	keyOutput        = "output"
	keyLogging       = "logging"
	keyServer        = "server"
	keyCache         = "cache"
	keyReinforcement = "reinforcement"
)

// knownTopLevelKeys lists the YAML keys that correspond to Config fields.
// Other keys are ignored during merge.
//
//nolint:gochecknoglobals // Compile-time constant lookup table.
var knownTopLevelKeys = map[string]bool{
	keyCatalog:       true,
	keyMatcher:       true,
	keyInput:         true,
	keyExport:        true,
	keyOutput:        true,
	keyLogging:       true,
	keyServer:        true,
	keyCache:         true,
	keyReinforcement: true,
}

// ShallowMergeYAML loads a YAML file and merges its top-level keys onto
// target. A key present in the overlay replaces the whole section; absent
// keys leave the target unchanged.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]interface{}
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

// unmarshalSection decodes data into a fresh value of the section's type
// and assigns it, so maps and slices are replaced rather than merged.
func unmarshalSection(target *Config, key string, data []byte) error {
	switch key {
	case keyCatalog:
		return replace(data, &target.Catalog)
	case keyMatcher:
		return replace(data, &target.Matcher)
	case keyInput:
		return replace(data, &target.Input)
	case keyExport:
		return replace(data, &target.Export)
	case keyOutput:
		return replace(data, &target.Output)
	case keyLogging:
		return replace(data, &target.Logging)
	case keyServer:
		return replace(data, &target.Server)
	case keyCache:
		return replace(data, &target.Cache)
	case keyReinforcement:
		return replace(data, &target.Reinforcement)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
}

func replace[T any](data []byte, dst *T) error {
	var v T
	if err := yaml.Unmarshal(data, &v); err != nil {
		return err
	}
	*dst = v
	return nil
}
