package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable key
const EnvPrefix = "SUGGEST"

// legacyAPIKeyEnv is read when suggest.api_key is not set
const legacyAPIKeyEnv = "GEMINI_API_KEY"

// Load reads configuration from an optional suggestd.yaml and environment
// variables. Keys use the SUGGEST prefix with dots replaced by underscores,
// so "suggest.max_retries" becomes "SUGGEST_SUGGEST_MAX_RETRIES".
// An explicit path overrides the search for suggestd.yaml.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("suggestd")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Suggest.APIKey == "" {
		cfg.Suggest.APIKey = os.Getenv(legacyAPIKeyEnv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise break the dispatch path
func (c *Config) Validate() error {
	if c.Suggest.MaxRetries < 0 {
		return errors.New("suggest.max_retries must be non-negative")
	}
	if c.Suggest.RequestTimeout <= 0 {
		return errors.New("suggest.request_timeout must be positive")
	}
	if c.Suggest.RetryDelay < 0 {
		return errors.New("suggest.retry_delay must be non-negative")
	}
	if c.Suggest.MaxInputLength <= 0 {
		return errors.New("suggest.max_input_length must be positive")
	}
	if c.Queue.SecondsPerItem < 0 {
		return errors.New("queue.seconds_per_item must be non-negative")
	}
	return nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string{}, parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
