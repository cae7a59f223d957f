/*
 *     Copyright 2024 The Codebucket Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/codebucket-io/codebucket/cmd/dependency/base"
	logger "github.com/codebucket-io/codebucket/internal/dflog"
	"github.com/codebucket-io/codebucket/pkg/groupkey"
	"github.com/codebucket-io/codebucket/pkg/stock"
)

type Config struct {
	// Base options.
	base.Options `yaml:",inline" mapstructure:",squash"`

	// Bucket configuration.
	Bucket *BucketConfig `yaml:"bucket" mapstructure:"bucket" validate:"required"`

	// Ingest configuration.
	Ingest *IngestConfig `yaml:"ingest" mapstructure:"ingest" validate:"required"`

	// Metrics configuration.
	Metrics *MetricsConfig `yaml:"metrics" mapstructure:"metrics" validate:"required"`

	// Markets are the providers of code suffixes.
	Markets []stock.Market `yaml:"markets" mapstructure:"markets" validate:"dive"`

	// DefaultProviders serve codes matching no market.
	DefaultProviders []groupkey.Provider `yaml:"defaultProviders" mapstructure:"defaultProviders" validate:"required,min=1"`
}

type BucketConfig struct {
	// MaxBucketSize is the max count of codes in one bucket.
	MaxBucketSize int `yaml:"maxBucketSize" mapstructure:"maxBucketSize" validate:"gt=0"`

	// KeyScheme is the way group keys are built, name or id.
	KeyScheme string `yaml:"keyScheme" mapstructure:"keyScheme" validate:"oneof=name id"`
}

type IngestConfig struct {
	// Workers is the count of goroutines adding codes.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=1"`
}

type MetricsConfig struct {
	// Addr is the listen address of metrics server, disabled if empty.
	Addr string `yaml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// New returns the default config.
func New() *Config {
	return &Config{
		Options: base.Options{
			LogDir: DefaultLogDir,
		},
		Bucket: &BucketConfig{
			MaxBucketSize: DefaultMaxBucketSize,
			KeyScheme:     string(groupkey.SchemeName),
		},
		Ingest: &IngestConfig{
			Workers: DefaultWorkers,
		},
		Metrics:          &MetricsConfig{},
		Markets:          DefaultMarkets(),
		DefaultProviders: DefaultProviders(),
	}
}

// Load reads config from file, environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	logger.Debugf("using config file: %s", v.ConfigFileUsed())

	cfg := New()

	// Slices are merged element by element by mapstructure, so lists from
	// the file replace the defaults instead.
	markets, defaultProviders := cfg.Markets, cfg.DefaultProviders
	cfg.Markets, cfg.DefaultProviders = nil, nil

	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if len(cfg.Markets) == 0 {
		cfg.Markets = markets
	}

	if len(cfg.DefaultProviders) == 0 {
		cfg.DefaultProviders = defaultProviders
	}

	return cfg, nil
}

// Validate checks config values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	// Provider ids identify providers in group keys, an id must
	// always carry the same name.
	names := make(map[uint32]string)
	checkProviders := func(providers []groupkey.Provider) error {
		for _, p := range providers {
			if p.Name == "" {
				return fmt.Errorf("provider %d requires parameter name", p.ID)
			}

			if name, ok := names[p.ID]; ok && name != p.Name {
				return fmt.Errorf("provider %d has different names %q and %q", p.ID, name, p.Name)
			}
			names[p.ID] = p.Name
		}

		return nil
	}

	for _, m := range c.Markets {
		if len(m.Providers) == 0 {
			return fmt.Errorf("market %q requires parameter providers", m.Suffix)
		}

		if err := checkProviders(m.Providers); err != nil {
			return err
		}
	}

	if err := checkProviders(c.DefaultProviders); err != nil {
		return err
	}

	if c.Bucket.KeyScheme == string(groupkey.SchemeName) {
		ids := make(map[string]uint32)
		for id, name := range names {
			if other, ok := ids[name]; ok {
				logger.Warnf("providers %d and %d share name %q, their codes are grouped together", other, id, name)
				continue
			}
			ids[name] = id
		}
	}

	return nil
}
