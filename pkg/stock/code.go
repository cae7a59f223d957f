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

package stock

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidCode represents the stock code is malformed.
var ErrInvalidCode = errors.New("invalid stock code")

// suffixSeparator separates the symbol and the market suffix, e.g. 0005.KL.
const suffixSeparator = "."

// Code is a stock code, optionally followed by a market suffix.
type Code string

// Suffix returns the market suffix of code in upper case,
// or empty string if code has no suffix.
func (c Code) Suffix() string {
	i := strings.LastIndex(string(c), suffixSeparator)
	if i < 0 {
		return ""
	}

	return strings.ToUpper(string(c)[i+len(suffixSeparator):])
}

// Validate returns an error if code is empty or contains whitespace.
func (c Code) Validate() error {
	if c == "" {
		return fmt.Errorf("%w: empty", ErrInvalidCode)
	}

	if strings.IndexFunc(string(c), unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidCode, string(c))
	}

	return nil
}

func (c Code) String() string {
	return string(c)
}
