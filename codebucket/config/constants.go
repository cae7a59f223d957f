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
	"os"
	"path/filepath"

	"github.com/codebucket-io/codebucket/pkg/groupkey"
	"github.com/codebucket-io/codebucket/pkg/stock"
)

const (
	// EnvPrefix is the environment prefix of config keys.
	EnvPrefix = "codebucket"

	// DefaultMaxBucketSize is the default max count of codes in one bucket.
	DefaultMaxBucketSize = 4

	// DefaultWorkers is the default count of ingest workers.
	DefaultWorkers = 1
)

var (
	// DefaultLogDir is the default directory of log files.
	DefaultLogDir = filepath.Join(os.TempDir(), "codebucket", "logs")
)

var (
	YahooProvider       = groupkey.Provider{ID: 1, Name: "YahooStockServerFactory"}
	GoogleProvider      = groupkey.Provider{ID: 2, Name: "GoogleStockServerFactory"}
	KLSEInfoProvider    = groupkey.Provider{ID: 3, Name: "KLSEInfoStockServerFactory"}
	BrazilYahooProvider = groupkey.Provider{ID: 4, Name: "BrazilYahooStockServerFactory"}
)

// DefaultMarkets returns the built-in market table.
func DefaultMarkets() []stock.Market {
	return []stock.Market{
		{Suffix: "KL", Providers: []groupkey.Provider{KLSEInfoProvider, GoogleProvider, YahooProvider}},
		{Suffix: "SA", Providers: []groupkey.Provider{BrazilYahooProvider, YahooProvider}},
		{Suffix: "NS", Providers: []groupkey.Provider{GoogleProvider, YahooProvider}},
		{Suffix: "BO", Providers: []groupkey.Provider{GoogleProvider, YahooProvider}},
	}
}

// DefaultProviders returns the providers of codes matching no market.
func DefaultProviders() []groupkey.Provider {
	return []groupkey.Provider{YahooProvider, GoogleProvider}
}
