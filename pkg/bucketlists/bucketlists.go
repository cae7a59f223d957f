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
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	logger "github.com/codebucket-io/codebucket/internal/dflog"
	"github.com/codebucket-io/codebucket/pkg/container/bucketlist"
	"github.com/codebucket-io/codebucket/pkg/groupkey"
)

var (
	// ErrInvalidMaxBucketSize represents max bucket size is not positive.
	ErrInvalidMaxBucketSize = errors.New("invalid max bucket size")

	// ErrNilDeriver represents group key deriver is nil.
	ErrNilDeriver = errors.New("group key deriver is nil")

	// ErrBucketContract represents bucket list grows by more than one value
	// per add, or shrinks.
	ErrBucketContract = errors.New("bucket list broke growth contract")
)

// BaseOffset is the position in the flattened view where
// the run of a group key begins.
type BaseOffset struct {
	Key    string `json:"key" yaml:"key"`
	Offset int    `json:"offset" yaml:"offset"`
}

// BucketLists groups values into bucket lists by group key, and keeps
// a flattened view in which the values of every group key are contiguous,
// ordered by group creation.
type BucketLists[T comparable] interface {
	// Add adds value to the bucket list of its group key. It returns false
	// if value already exists or the bucket list is full.
	Add(T) bool

	// Contains returns whether value exists.
	Contains(T) bool

	// Bucket returns the values of group key.
	Bucket(key string) ([]T, bool)

	// Buckets returns a copy of values grouped by key.
	Buckets() map[string][]T

	// Flattened returns a copy of the flattened view, one group key per value.
	Flattened() []string

	// CreationOrder returns a copy of the creation index of group keys.
	CreationOrder() map[string]int

	// BaseOffsets returns a copy of base offsets in creation order.
	BaseOffsets() []BaseOffset

	// Snapshot returns all bookkeeping captured at the same instant.
	Snapshot() *Snapshot[T]

	// Len returns the length of the flattened view.
	Len() int

	// GroupCount returns the count of group keys.
	GroupCount() int

	// MaxBucketSize returns the capacity of every bucket list.
	MaxBucketSize() int
}

// Option is a functional option for configuring the bucket lists.
type Option[T comparable] func(b *bucketLists[T])

// WithBucketFactory sets the constructor of bucket lists.
func WithBucketFactory[T comparable](factory func(maxSize int) bucketlist.BucketList[T]) Option[T] {
	return func(b *bucketLists[T]) {
		b.newBucket = factory
	}
}

type bucketLists[T comparable] struct {
	// mu guards every field below as one unit, a growth of one
	// group key shifts the base offsets of the later ones.
	mu sync.RWMutex

	maxBucketSize int
	deriver       groupkey.Deriver[T]
	newBucket     func(maxSize int) bucketlist.BucketList[T]

	// buckets is written only under mu.
	buckets       cmap.ConcurrentMap[string, bucketlist.BucketList[T]]
	flattened     []string
	creationOrder map[string]int
	baseOffsets   []BaseOffset
}

// New returns a new BucketLists interface.
func New[T comparable](maxBucketSize int, deriver groupkey.Deriver[T], options ...Option[T]) (BucketLists[T], error) {
	if maxBucketSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxBucketSize, maxBucketSize)
	}

	if deriver == nil {
		return nil, ErrNilDeriver
	}

	b := &bucketLists[T]{
		maxBucketSize: maxBucketSize,
		deriver:       deriver,
		newBucket:     bucketlist.New[T],
		buckets:       cmap.New[bucketlist.BucketList[T]](),
		creationOrder: make(map[string]int),
	}

	for _, opt := range options {
		opt(b)
	}

	return b, nil
}

func (b *bucketLists[T]) Add(value T) bool {
	key := b.deriver.DeriveKey(value)

	b.mu.Lock()
	defer b.mu.Unlock()

	// A new bucket is stored once it holds a value.
	bucket, found := b.buckets.Get(key)
	if !found {
		bucket = b.newBucket(b.maxBucketSize)
	}

	before := bucket.Len()
	if !bucket.Add(value) {
		if bucket.IsFull() {
			logger.WithGroupKey(key).Debugf("bucket list is full at %d", before)
		}
		return false
	}

	after := bucket.Len()
	if after != before && after != before+1 {
		err := fmt.Errorf("%w: group key %q size %d to %d", ErrBucketContract, key, before, after)
		logger.WithGroupKey(key).Errorf("bucket list size changed from %d to %d", before, after)
		panic(err)
	}

	if after == before {
		return true
	}

	if !found {
		b.buckets.Set(key, bucket)
	}

	var offset int
	if i, ok := b.creationOrder[key]; ok {
		offset = b.baseOffsets[i].Offset
		for j := i + 1; j < len(b.baseOffsets); j++ {
			b.baseOffsets[j].Offset++
		}
	} else {
		if n := len(b.baseOffsets); n > 0 {
			last := b.baseOffsets[n-1]
			lastBucket, _ := b.buckets.Get(last.Key)
			offset = last.Offset + lastBucket.Len()
		}

		b.baseOffsets = append(b.baseOffsets, BaseOffset{Key: key, Offset: offset})
		b.creationOrder[key] = len(b.baseOffsets) - 1
		logger.WithGroupKey(key).Debugf("create group at offset %d", offset)
	}

	b.flattened = slices.Insert(b.flattened, offset, key)
	return true
}

func (b *bucketLists[T]) Contains(value T) bool {
	bucket, ok := b.buckets.Get(b.deriver.DeriveKey(value))
	if !ok {
		return false
	}

	return bucket.Contains(value)
}

func (b *bucketLists[T]) Bucket(key string) ([]T, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bucket, ok := b.buckets.Get(key)
	if !ok {
		return nil, false
	}

	return bucket.Values(), true
}

func (b *bucketLists[T]) Buckets() map[string][]T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.copyBuckets()
}

func (b *bucketLists[T]) Flattened() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.copyFlattened()
}

func (b *bucketLists[T]) CreationOrder() map[string]int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.copyCreationOrder()
}

func (b *bucketLists[T]) BaseOffsets() []BaseOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.copyBaseOffsets()
}

func (b *bucketLists[T]) Snapshot() *Snapshot[T] {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return &Snapshot[T]{
		MaxBucketSize: b.maxBucketSize,
		Buckets:       b.copyBuckets(),
		Flattened:     b.copyFlattened(),
		CreationOrder: b.copyCreationOrder(),
		BaseOffsets:   b.copyBaseOffsets(),
	}
}

func (b *bucketLists[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.flattened)
}

func (b *bucketLists[T]) GroupCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.baseOffsets)
}

func (b *bucketLists[T]) MaxBucketSize() int {
	return b.maxBucketSize
}

func (b *bucketLists[T]) copyBuckets() map[string][]T {
	buckets := make(map[string][]T, b.buckets.Count())
	for item := range b.buckets.IterBuffered() {
		buckets[item.Key] = item.Val.Values()
	}

	return buckets
}

func (b *bucketLists[T]) copyFlattened() []string {
	return append(make([]string, 0, len(b.flattened)), b.flattened...)
}

func (b *bucketLists[T]) copyCreationOrder() map[string]int {
	return maps.Clone(b.creationOrder)
}

func (b *bucketLists[T]) copyBaseOffsets() []BaseOffset {
	return append(make([]BaseOffset, 0, len(b.baseOffsets)), b.baseOffsets...)
}
