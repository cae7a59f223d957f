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

package groupkey

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownScheme represents the key scheme is not supported.
var ErrUnknownScheme = errors.New("unknown key scheme")

const (
	// idSeparator is the separator between provider ids in SchemeID keys.
	idSeparator = "-"
)

// Scheme is the way a group key is built from providers.
type Scheme string

const (
	// SchemeName concatenates provider names in order. Providers sharing
	// a name produce the same key.
	SchemeName Scheme = "name"

	// SchemeID joins provider ids in order.
	SchemeID Scheme = "id"
)

// ParseScheme parses scheme from string.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(s)) {
	case SchemeName:
		return SchemeName, nil
	case SchemeID:
		return SchemeID, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScheme, s)
	}
}

// Provider is a source which can serve an item.
type Provider struct {
	// ID is the unique id of provider.
	ID uint32 `yaml:"id" mapstructure:"id" json:"id"`

	// Name is the display name of provider.
	Name string `yaml:"name" mapstructure:"name" json:"name"`
}

// Resolver returns the ordered providers of an item.
type Resolver[T any] interface {
	Providers(T) []Provider
}

// ResolverFunc is an adapter to use a function as Resolver.
type ResolverFunc[T any] func(T) []Provider

// Providers calls f(item).
func (f ResolverFunc[T]) Providers(item T) []Provider {
	return f(item)
}

// Deriver derives the group key of an item.
// Keys are deterministic and order sensitive.
type Deriver[T any] interface {
	DeriveKey(T) string
}

// DeriverFunc is an adapter to use a function as Deriver.
type DeriverFunc[T any] func(T) string

// DeriveKey calls f(item).
func (f DeriverFunc[T]) DeriveKey(item T) string {
	return f(item)
}

// New returns the Deriver of scheme.
func New[T any](scheme Scheme, resolver Resolver[T]) (Deriver[T], error) {
	switch scheme {
	case SchemeName:
		return NewNameDeriver(resolver), nil
	case SchemeID:
		return NewIDDeriver(resolver), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
}

type nameDeriver[T any] struct {
	resolver Resolver[T]
}

// NewNameDeriver returns a Deriver concatenating provider names.
func NewNameDeriver[T any](resolver Resolver[T]) Deriver[T] {
	return &nameDeriver[T]{resolver: resolver}
}

func (d *nameDeriver[T]) DeriveKey(item T) string {
	var sb strings.Builder
	for _, p := range d.resolver.Providers(item) {
		sb.WriteString(p.Name)
	}

	return sb.String()
}

type idDeriver[T any] struct {
	resolver Resolver[T]
}

// NewIDDeriver returns a Deriver joining provider ids.
func NewIDDeriver[T any](resolver Resolver[T]) Deriver[T] {
	return &idDeriver[T]{resolver: resolver}
}

func (d *idDeriver[T]) DeriveKey(item T) string {
	providers := d.resolver.Providers(item)
	ids := make([]string, 0, len(providers))
	for _, p := range providers {
		ids = append(ids, strconv.FormatUint(uint64(p.ID), 10))
	}

	return strings.Join(ids, idSeparator)
}
