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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codebucket-io/codebucket/cmd/dependency/base"
	"github.com/codebucket-io/codebucket/pkg/groupkey"
	"github.com/codebucket-io/codebucket/pkg/stock"
)

func TestConfig_Load(t *testing.T) {
	assert := assert.New(t)

	config := &Config{
		Options: base.Options{
			Console:   true,
			Verbose:   true,
			PProfPort: 9090,
			LogDir:    "/var/log/codebucket",
		},
		Bucket: &BucketConfig{
			MaxBucketSize: 10,
			KeyScheme:     "id",
		},
		Ingest: &IngestConfig{
			Workers: 8,
		},
		Metrics: &MetricsConfig{
			Addr: "127.0.0.1:9100",
		},
		Markets: []stock.Market{
			{
				Suffix: "KL",
				Providers: []groupkey.Provider{
					{ID: 3, Name: "KLSEInfoStockServerFactory"},
					{ID: 1, Name: "YahooStockServerFactory"},
				},
			},
		},
		DefaultProviders: []groupkey.Provider{
			{ID: 1, Name: "YahooStockServerFactory"},
		},
	}

	codebucketConfigYAML, err := Load("./testdata/codebucket.yaml")
	assert.NoError(err)
	assert.EqualValues(config, codebucketConfigYAML)
	assert.NoError(codebucketConfigYAML.Validate())
}

func TestConfig_LoadPartial(t *testing.T) {
	assert := assert.New(t)

	cfg, err := Load("./testdata/partial.yaml")
	assert.NoError(err)
	assert.Equal(cfg.Bucket.MaxBucketSize, 20)
	assert.Equal(cfg.Bucket.KeyScheme, "name")
	assert.Equal(cfg.Ingest.Workers, DefaultWorkers)
	assert.Equal(cfg.Markets, DefaultMarkets())
	assert.Equal(cfg.DefaultProviders, DefaultProviders())
	assert.Equal(cfg.LogDir, DefaultLogDir)
	assert.NoError(cfg.Validate())
}

func TestConfig_LoadEnv(t *testing.T) {
	t.Setenv("CODEBUCKET_BUCKET_MAXBUCKETSIZE", "7")

	cfg, err := Load("./testdata/partial.yaml")
	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal(cfg.Bucket.MaxBucketSize, 7)
}

func TestConfig_LoadNotFound(t *testing.T) {
	_, err := Load("./testdata/foo.yaml")
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		config func() *Config
		expect func(t *testing.T, err error)
	}{
		{
			name:   "valid config",
			config: New,
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.NoError(err)
			},
		},
		{
			name: "max bucket size is zero",
			config: func() *Config {
				cfg := New()
				cfg.Bucket.MaxBucketSize = 0
				return cfg
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.ErrorContains(err, "MaxBucketSize")
			},
		},
		{
			name: "unknown key scheme",
			config: func() *Config {
				cfg := New()
				cfg.Bucket.KeyScheme = "set"
				return cfg
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.ErrorContains(err, "KeyScheme")
			},
		},
		{
			name: "workers is zero",
			config: func() *Config {
				cfg := New()
				cfg.Ingest.Workers = 0
				return cfg
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.ErrorContains(err, "Workers")
			},
		},
		{
			name: "invalid metrics addr",
			config: func() *Config {
				cfg := New()
				cfg.Metrics.Addr = "localhost"
				return cfg
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.ErrorContains(err, "Addr")
			},
		},
		{
			name: "no default providers",
			config: func() *Config {
				cfg := New()
				cfg.DefaultProviders = nil
				return cfg
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.ErrorContains(err, "DefaultProviders")
			},
		},
		{
			name: "market without providers",
			config: func() *Config {
				cfg := New()
				cfg.Markets = append(cfg.Markets, stock.Market{Suffix: "SI"})
				return cfg
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.EqualError(err, `market "SI" requires parameter providers`)
			},
		},
		{
			name: "provider without name",
			config: func() *Config {
				cfg := New()
				cfg.DefaultProviders = []groupkey.Provider{{ID: 9}}
				return cfg
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.EqualError(err, "provider 9 requires parameter name")
			},
		},
		{
			name: "provider id with different names",
			config: func() *Config {
				cfg := New()
				cfg.DefaultProviders = []groupkey.Provider{{ID: YahooProvider.ID, Name: "Yahoo"}}
				return cfg
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.EqualError(err, `provider 1 has different names "YahooStockServerFactory" and "Yahoo"`)
			},
		},
		{
			name: "providers share name",
			config: func() *Config {
				cfg := New()
				cfg.DefaultProviders = []groupkey.Provider{{ID: 99, Name: YahooProvider.Name}}
				return cfg
			},
			expect: func(t *testing.T, err error) {
				assert := assert.New(t)
				assert.NoError(err)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.expect(t, tc.config().Validate())
		})
	}
}
