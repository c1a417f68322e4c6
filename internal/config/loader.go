package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Loader layers configuration sources with koanf.
type Loader struct {
	koanf     *koanf.Koanf
	validator *validator.Validate
	environ   func() []string
}

// NewLoader creates a loader reading the process environment.
func NewLoader() *Loader {
	return &Loader{
		koanf:     koanf.New("."),
		validator: validator.New(),
		environ:   os.Environ,
	}
}

// Load builds the configuration. path names an optional YAML file; a
// missing file is not an error. overrides holds dotted keys, such as
// "limits.max_passes", that take precedence over every other source.
func (l *Loader) Load(_ context.Context, path string, overrides map[string]any) (*Config, error) {
	l.koanf = koanf.New(".")

	if err := l.koanf.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		data, err := readYAML(path)
		if err != nil {
			return nil, err
		}
		if len(data) > 0 {
			if err := l.koanf.Load(rawMap(data), nil); err != nil {
				return nil, fmt.Errorf("failed to apply %s: %w", path, err)
			}
		}
	}

	if err := l.loadEnvironment(); err != nil {
		return nil, err
	}

	for key, value := range overrides {
		if err := l.koanf.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return l.unmarshalAndValidate()
}

// loadEnvironment maps SKI_* variables onto keys.
func (l *Loader) loadEnvironment() error {
	if err := l.koanf.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnvKey,
		EnvironFunc:   l.environ,
	}), nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	return nil
}

// transformEnvKey converts environment variable names to koanf paths.
// For example: SKI_LIMITS_MAX_PASSES -> limits.max_passes
func transformEnvKey(key, value string) (string, any) {
	s := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_'
	})
	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return parts[0], value
	}
	return parts[0] + "." + strings.Join(parts[1:], "_"), value
}

func (l *Loader) unmarshalAndValidate() (*Config, error) {
	var cfg Config
	if err := l.koanf.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := l.validator.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func readYAML(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	data := make(map[string]any)
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return data, nil
}

// Load is a convenience wrapper around NewLoader().Load.
func Load(ctx context.Context, path string, overrides map[string]any) (*Config, error) {
	return NewLoader().Load(ctx, path, overrides)
}

// rawMap is a koanf.Provider adapter for map[string]any data.
type rawMap map[string]any

func (r rawMap) Read() (map[string]any, error) {
	return r, nil
}

func (r rawMap) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("ReadBytes not implemented")
}
