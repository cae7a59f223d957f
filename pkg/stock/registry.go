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

//go:generate mockgen -destination mocks/registry_mock.go -source registry.go -package mocks

package stock

import (
	"errors"
	"fmt"
	"strings"

	"github.com/codebucket-io/codebucket/pkg/groupkey"
)

var (
	// ErrDuplicateMarket represents a market suffix is registered twice.
	ErrDuplicateMarket = errors.New("duplicate market")

	// ErrNoProviders represents a market has no providers.
	ErrNoProviders = errors.New("market has no providers")
)

// Market is the providers serving codes with suffix.
type Market struct {
	// Suffix is the code suffix of market, empty for codes without suffix.
	Suffix string `yaml:"suffix" mapstructure:"suffix" json:"suffix"`

	// Providers are ordered by priority.
	Providers []groupkey.Provider `yaml:"providers" mapstructure:"providers" json:"providers"`
}

// Registry resolves the ordered providers of a stock code.
type Registry interface {
	Providers(Code) []groupkey.Provider
}

type registry struct {
	markets  map[string][]groupkey.Provider
	defaults []groupkey.Provider
}

// NewRegistry returns a new Registry. Codes whose suffix matches no market
// resolve to defaults.
func NewRegistry(markets []Market, defaults []groupkey.Provider) (Registry, error) {
	r := &registry{
		markets:  make(map[string][]groupkey.Provider, len(markets)),
		defaults: append([]groupkey.Provider(nil), defaults...),
	}

	for _, m := range markets {
		suffix := strings.ToUpper(m.Suffix)
		if _, ok := r.markets[suffix]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateMarket, m.Suffix)
		}

		if len(m.Providers) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrNoProviders, m.Suffix)
		}

		r.markets[suffix] = append([]groupkey.Provider(nil), m.Providers...)
	}

	return r, nil
}

func (r *registry) Providers(code Code) []groupkey.Provider {
	providers, ok := r.markets[code.Suffix()]
	if !ok {
		providers = r.defaults
	}

	return append([]groupkey.Provider(nil), providers...)
}
