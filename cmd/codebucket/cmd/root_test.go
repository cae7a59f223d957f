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

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/codebucket-io/codebucket/codebucket/config"
	"github.com/codebucket-io/codebucket/codebucket/service"
	"github.com/codebucket-io/codebucket/codebucket/service/mocks"
	"github.com/codebucket-io/codebucket/pkg/bucketlists"
	"github.com/codebucket-io/codebucket/pkg/stock"
)

var mockSnapshot = &bucketlists.Snapshot[stock.Code]{
	MaxBucketSize: 4,
	Buckets: map[string][]stock.Code{
		"KLSEYahoo": {"0005.KL"},
		"Yahoo":     {"AAPL", "MSFT"},
	},
	Flattened:     []string{"KLSEYahoo", "Yahoo", "Yahoo"},
	CreationOrder: map[string]int{"KLSEYahoo": 0, "Yahoo": 1},
	BaseOffsets: []bucketlists.BaseOffset{
		{Key: "KLSEYahoo", Offset: 0},
		{Key: "Yahoo", Offset: 1},
	},
}

func TestReadCodes(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect func(t *testing.T, codes []stock.Code, err error)
	}{
		{
			name:  "read codes",
			input: "0005.KL\nAAPL\n",
			expect: func(t *testing.T, codes []stock.Code, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal([]stock.Code{"0005.KL", "AAPL"}, codes)
			},
		},
		{
			name:  "skip blank and comment lines",
			input: "# watch list\n\n  0005.KL  \n\t\n  # disabled\nAAPL",
			expect: func(t *testing.T, codes []stock.Code, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal([]stock.Code{"0005.KL", "AAPL"}, codes)
			},
		},
		{
			name:  "empty input",
			input: "",
			expect: func(t *testing.T, codes []stock.Code, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Empty(codes)
			},
		},
		{
			name:  "keep inner whitespace",
			input: "BAD CODE\n",
			expect: func(t *testing.T, codes []stock.Code, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal([]stock.Code{"BAD CODE"}, codes)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			codes, err := readCodes(strings.NewReader(tc.input))
			tc.expect(t, codes, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		expect func(t *testing.T, cfg *config.Config, err error)
	}{
		{
			name: "default config",
			args: []string{},
			expect: func(t *testing.T, cfg *config.Config, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal(config.New(), cfg)
			},
		},
		{
			name: "flags override defaults",
			args: []string{"--max-bucket-size", "8", "--key-scheme", "ID", "--workers", "4", "--console", "--metrics-addr", "127.0.0.1:9100"},
			expect: func(t *testing.T, cfg *config.Config, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal(8, cfg.Bucket.MaxBucketSize)
				assert.Equal("id", cfg.Bucket.KeyScheme)
				assert.Equal(4, cfg.Ingest.Workers)
				assert.True(cfg.Console)
				assert.Equal("127.0.0.1:9100", cfg.Metrics.Addr)
			},
		},
		{
			name: "flags override config file",
			args: []string{"--config", "../../../codebucket/config/testdata/codebucket.yaml", "--workers", "2"},
			expect: func(t *testing.T, cfg *config.Config, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal(10, cfg.Bucket.MaxBucketSize)
				assert.Equal("id", cfg.Bucket.KeyScheme)
				assert.Equal(2, cfg.Ingest.Workers)
				assert.Len(cfg.Markets, 1)
			},
		},
		{
			name: "config file not found",
			args: []string{"--config", "testdata/notfound.yaml"},
			expect: func(t *testing.T, cfg *config.Config, err error) {
				assert := assert.New(t)
				assert.Error(err)
				assert.Nil(cfg)
			},
		},
		{
			name: "invalid max bucket size",
			args: []string{"--max-bucket-size", "0"},
			expect: func(t *testing.T, cfg *config.Config, err error) {
				assert := assert.New(t)
				assert.ErrorContains(err, "validate config")
				assert.Nil(cfg)
			},
		},
		{
			name: "unknown key scheme",
			args: []string{"--key-scheme", "hash"},
			expect: func(t *testing.T, cfg *config.Config, err error) {
				assert := assert.New(t)
				assert.ErrorContains(err, "validate config")
				assert.Nil(cfg)
			},
		},
		{
			name: "unknown output format",
			args: []string{"--output", "xml"},
			expect: func(t *testing.T, cfg *config.Config, err error) {
				assert := assert.New(t)
				assert.ErrorContains(err, "unknown output format")
				assert.Nil(cfg)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := &options{}
			flagSet := pflag.NewFlagSet("codebucket", pflag.ContinueOnError)
			addFlags(flagSet, o)
			if err := flagSet.Parse(tc.args); err != nil {
				t.Fatal(err)
			}

			cfg, err := loadConfig(flagSet, o)
			tc.expect(t, cfg, err)
		})
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		output string
		verify bool
		mock   func(m *mocks.MockServiceMockRecorder)
		expect func(t *testing.T, out string, err error)
	}{
		{
			name:   "write json report",
			input:  "0005.KL\nAAPL\nMSFT\n",
			output: outputJSON,
			verify: true,
			mock: func(m *mocks.MockServiceMockRecorder) {
				gomock.InOrder(
					m.AddAll(gomock.Any(), []stock.Code{"0005.KL", "AAPL", "MSFT"}).Return(&service.Result{Accepted: 3}, nil).Times(1),
					m.Snapshot().Return(mockSnapshot).Times(1),
					m.Stats().Return(service.Stats{Accepted: 3}).Times(1),
				)
			},
			expect: func(t *testing.T, out string, err error) {
				assert := assert.New(t)
				assert.NoError(err)

				var rp report
				assert.NoError(json.Unmarshal([]byte(out), &rp))
				assert.Equal(int64(3), rp.Stats.Accepted)
				assert.Equal(mockSnapshot.Flattened, rp.Snapshot.Flattened)
				assert.Equal(mockSnapshot.BaseOffsets, rp.Snapshot.BaseOffsets)
			},
		},
		{
			name:   "write yaml report",
			input:  "AAPL\n",
			output: outputYAML,
			mock: func(m *mocks.MockServiceMockRecorder) {
				m.AddAll(gomock.Any(), gomock.Any()).Return(&service.Result{Accepted: 1}, nil).Times(1)
				m.Snapshot().Return(mockSnapshot).Times(1)
				m.Stats().Return(service.Stats{Accepted: 1}).Times(1)
			},
			expect: func(t *testing.T, out string, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Contains(out, "flattened:")

				var rp report
				assert.NoError(yaml.Unmarshal([]byte(out), &rp))
				assert.Equal(mockSnapshot.Buckets, rp.Snapshot.Buckets)
				assert.Equal(mockSnapshot.CreationOrder, rp.Snapshot.CreationOrder)
			},
		},
		{
			name:   "skip invalid codes",
			input:  "AAPL\nBAD CODE\n",
			output: outputJSON,
			mock: func(m *mocks.MockServiceMockRecorder) {
				invalid := multierror.Append(nil, stock.ErrInvalidCode)
				m.AddAll(gomock.Any(), gomock.Any()).Return(&service.Result{Accepted: 1, Invalid: invalid}, nil).Times(1)
				m.Snapshot().Return(mockSnapshot).Times(1)
				m.Stats().Return(service.Stats{Accepted: 1, Invalid: 1}).Times(1)
			},
			expect: func(t *testing.T, out string, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Contains(out, "\"invalid\": 1")
			},
		},
		{
			name:   "add codes failed",
			input:  "AAPL\n",
			output: outputJSON,
			mock: func(m *mocks.MockServiceMockRecorder) {
				m.AddAll(gomock.Any(), gomock.Any()).Return(nil, context.Canceled).Times(1)
			},
			expect: func(t *testing.T, out string, err error) {
				assert := assert.New(t)
				assert.ErrorIs(err, context.Canceled)
				assert.Empty(out)
			},
		},
		{
			name:   "verify inconsistent buckets",
			input:  "AAPL\n",
			output: outputJSON,
			verify: true,
			mock: func(m *mocks.MockServiceMockRecorder) {
				m.AddAll(gomock.Any(), gomock.Any()).Return(&service.Result{Accepted: 1}, nil).Times(1)
				m.Snapshot().Return(&bucketlists.Snapshot[stock.Code]{
					MaxBucketSize: 4,
					Buckets:       map[string][]stock.Code{"Yahoo": {"AAPL"}},
					Flattened:     []string{},
					CreationOrder: map[string]int{},
				}).Times(1)
			},
			expect: func(t *testing.T, out string, err error) {
				assert := assert.New(t)
				assert.True(errors.Is(err, bucketlists.ErrInconsistentSnapshot))
				assert.Empty(out)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctl := gomock.NewController(t)
			defer ctl.Finish()

			svc := mocks.NewMockService(ctl)
			tc.mock(svc.EXPECT())

			var out bytes.Buffer
			err := run(context.Background(), svc, strings.NewReader(tc.input), &out, tc.output, tc.verify)
			tc.expect(t, out.String(), err)
		})
	}
}

func TestWriteReport_UnknownFormat(t *testing.T) {
	assert := assert.New(t)

	var out bytes.Buffer
	err := writeReport(&out, "xml", &report{Snapshot: mockSnapshot})
	assert.ErrorContains(err, "unknown output format")
	assert.Empty(out.String())
}
