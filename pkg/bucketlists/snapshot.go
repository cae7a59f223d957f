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

package bucketlists

import (
	"errors"
	"fmt"
)

// ErrInconsistentSnapshot represents the bookkeeping of a snapshot
// does not agree with its buckets.
var ErrInconsistentSnapshot = errors.New("inconsistent snapshot")

// Snapshot is a copy of the bookkeeping of bucket lists.
type Snapshot[T comparable] struct {
	MaxBucketSize int            `json:"maxBucketSize" yaml:"maxBucketSize"`
	Buckets       map[string][]T `json:"buckets" yaml:"buckets"`
	Flattened     []string       `json:"flattened" yaml:"flattened"`
	CreationOrder map[string]int `json:"creationOrder" yaml:"creationOrder"`
	BaseOffsets   []BaseOffset   `json:"baseOffsets" yaml:"baseOffsets"`
}

// Validate checks that the flattened view and base offsets agree with
// the bucket sizes.
func (s *Snapshot[T]) Validate() error {
	var total int
	for key, values := range s.Buckets {
		if len(values) > s.MaxBucketSize {
			return fmt.Errorf("%w: group key %q has %d values over max %d", ErrInconsistentSnapshot, key, len(values), s.MaxBucketSize)
		}
		total += len(values)
	}

	if total != len(s.Flattened) {
		return fmt.Errorf("%w: %d values but flattened length %d", ErrInconsistentSnapshot, total, len(s.Flattened))
	}

	if len(s.CreationOrder) != len(s.BaseOffsets) {
		return fmt.Errorf("%w: %d creation orders but %d base offsets", ErrInconsistentSnapshot, len(s.CreationOrder), len(s.BaseOffsets))
	}

	var expected int
	for i, baseOffset := range s.BaseOffsets {
		if order, ok := s.CreationOrder[baseOffset.Key]; !ok || order != i {
			return fmt.Errorf("%w: group key %q at %d has creation order %d", ErrInconsistentSnapshot, baseOffset.Key, i, order)
		}

		if baseOffset.Offset != expected {
			return fmt.Errorf("%w: group key %q has offset %d, expected %d", ErrInconsistentSnapshot, baseOffset.Key, baseOffset.Offset, expected)
		}

		size := len(s.Buckets[baseOffset.Key])
		for j := expected; j < expected+size; j++ {
			if s.Flattened[j] != baseOffset.Key {
				return fmt.Errorf("%w: flattened[%d] is %q, expected %q", ErrInconsistentSnapshot, j, s.Flattened[j], baseOffset.Key)
			}
		}

		expected += size
	}

	if expected != len(s.Flattened) {
		return fmt.Errorf("%w: base offsets cover %d of %d flattened entries", ErrInconsistentSnapshot, expected, len(s.Flattened))
	}

	return nil
}
