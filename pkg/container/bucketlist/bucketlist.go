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

package bucketlist

import (
	"fmt"
	"sync"

	"golang.org/x/exp/slices"
)

// BucketList is an ordered set with a fixed capacity.
type BucketList[T comparable] interface {
	// Add appends value, returns false if value already exists
	// or the bucket list is full.
	Add(T) bool

	// Contains returns whether value exists.
	Contains(T) bool

	// Values returns a copy of the values in insertion order.
	Values() []T

	// Len returns count of values.
	Len() int

	// IsFull returns whether Len has reached the max size.
	IsFull() bool
}

type bucketList[T comparable] struct {
	mu      sync.RWMutex
	maxSize int
	values  []T
	index   map[T]struct{}
}

// New returns a new BucketList holding at most maxSize values.
func New[T comparable](maxSize int) BucketList[T] {
	if maxSize <= 0 {
		panic(fmt.Sprintf("bucketlist: invalid max size %d", maxSize))
	}

	return &bucketList[T]{
		maxSize: maxSize,
		values:  make([]T, 0, maxSize),
		index:   make(map[T]struct{}, maxSize),
	}
}

func (b *bucketList[T]) Add(v T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, found := b.index[v]; found {
		return false
	}

	if len(b.values) >= b.maxSize {
		return false
	}

	b.index[v] = struct{}{}
	b.values = append(b.values, v)
	return true
}

func (b *bucketList[T]) Contains(v T) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, found := b.index[v]
	return found
}

func (b *bucketList[T]) Values() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return slices.Clone(b.values)
}

func (b *bucketList[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.values)
}

func (b *bucketList[T]) IsFull() bool {
	return b.Len() >= b.maxSize
}
