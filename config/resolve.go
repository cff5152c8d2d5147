package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, with dots in the
// key replaced by underscores: TRADER_POLICY_FLOOR_PCT.
const EnvPrefix = "TRADER"

// Options selects the layers Resolve reads. File may be empty. FlagKeys
// maps a flag name to the config key it overrides; only flags the user
// actually set take effect.
type Options struct {
	File     string
	Flags    *pflag.FlagSet
	FlagKeys map[string]string
}

// Resolve builds the configuration from defaults, then the file, then
// the environment, then flags, and validates the result.
func Resolve(opts Options) (*Config, error) {
	v := viper.New()

	base, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("marshal defaults: %w", err)
	}
	var defaults map[string]any
	if err := yaml.Unmarshal(base, &defaults); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if err := v.MergeConfigMap(defaults); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range opts.FlagKeys {
			f := opts.Flags.Lookup(name)
			if f == nil {
				return nil, fmt.Errorf("%w: no flag %q for key %s", ErrInvalidConfig, name, key)
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	cfg := &Config{}
	err = v.Unmarshal(cfg,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			dateHook,
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)),
		func(dc *mapstructure.DecoderConfig) { dc.TagName = "yaml" },
	)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

var timeType = reflect.TypeOf(time.Time{})

// dateHook accepts RFC 3339 timestamps and bare dates.
func dateHook(from, to reflect.Type, data any) (any, error) {
	if to != timeType || from.Kind() != reflect.String {
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: cannot parse %q as a date", ErrInvalidConfig, s)
}
