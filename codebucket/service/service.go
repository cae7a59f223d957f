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

//go:generate mockgen -destination mocks/service_mock.go -source service.go -package mocks

package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/codebucket-io/codebucket/codebucket/config"
	"github.com/codebucket-io/codebucket/codebucket/metrics"
	logger "github.com/codebucket-io/codebucket/internal/dflog"
	"github.com/codebucket-io/codebucket/pkg/bucketlists"
	"github.com/codebucket-io/codebucket/pkg/groupkey"
	"github.com/codebucket-io/codebucket/pkg/stock"
)

// Service groups stock codes into buckets by their providers.
type Service interface {
	// Add adds code, returns false if code exists or its bucket is full.
	Add(stock.Code) (bool, error)

	// AddAll adds codes with the configured count of workers. Invalid codes
	// are collected in the result, the error is only returned when ctx is done.
	AddAll(context.Context, []stock.Code) (*Result, error)

	// Snapshot returns the bookkeeping of buckets.
	Snapshot() *bucketlists.Snapshot[stock.Code]

	// Stats returns the counters since service started.
	Stats() Stats
}

// Result is the outcome of AddAll.
type Result struct {
	// Accepted is the count of codes added.
	Accepted int64

	// Rejected is the count of duplicate codes and codes of full buckets.
	Rejected int64

	// Invalid is the error of every invalid code, nil if there is none.
	Invalid error
}

// Stats are the counters of service.
type Stats struct {
	Accepted int64 `json:"accepted" yaml:"accepted"`
	Rejected int64 `json:"rejected" yaml:"rejected"`
	Invalid  int64 `json:"invalid" yaml:"invalid"`
}

type service struct {
	config      *config.Config
	deriver     groupkey.Deriver[stock.Code]
	bucketLists bucketlists.BucketLists[stock.Code]

	accepted *atomic.Int64
	rejected *atomic.Int64
	invalid  *atomic.Int64
}

// New returns a new Service interface.
func New(cfg *config.Config, registry stock.Registry) (Service, error) {
	scheme, err := groupkey.ParseScheme(cfg.Bucket.KeyScheme)
	if err != nil {
		return nil, err
	}

	deriver, err := groupkey.New[stock.Code](scheme, registry)
	if err != nil {
		return nil, err
	}

	b, err := bucketlists.New(cfg.Bucket.MaxBucketSize, deriver)
	if err != nil {
		return nil, err
	}

	return &service{
		config:      cfg,
		deriver:     deriver,
		bucketLists: b,
		accepted:    atomic.NewInt64(0),
		rejected:    atomic.NewInt64(0),
		invalid:     atomic.NewInt64(0),
	}, nil
}

func (s *service) Add(code stock.Code) (bool, error) {
	if err := code.Validate(); err != nil {
		s.invalid.Inc()
		metrics.AddCodeInvalidCount.Inc()
		return false, err
	}

	metrics.AddCodeCount.Inc()
	if !s.bucketLists.Add(code) {
		s.rejected.Inc()
		metrics.AddCodeRejectedCount.Inc()
		if logger.IsDebug() {
			key := s.deriver.DeriveKey(code)
			codes, _ := s.bucketLists.Bucket(key)
			logger.WithCode(code.String(), key).Debugf("code is duplicate or its bucket is full, bucket has %d codes", len(codes))
		}
		return false, nil
	}

	s.accepted.Inc()
	metrics.GroupGauge.Set(float64(s.bucketLists.GroupCount()))
	metrics.FlattenedSizeGauge.Set(float64(s.bucketLists.Len()))
	if logger.IsDebug() {
		logger.WithCode(code.String(), s.deriver.DeriveKey(code)).Debugf("code added")
	}

	return true, nil
}

func (s *service) AddAll(ctx context.Context, codes []stock.Code) (*Result, error) {
	var (
		accepted = atomic.NewInt64(0)
		rejected = atomic.NewInt64(0)
		mu       sync.Mutex
		invalid  *multierror.Error
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.config.Ingest.Workers)
	for i, code := range codes {
		if egCtx.Err() != nil {
			break
		}

		i, code := i, code
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			ok, err := s.Add(code)
			if err != nil {
				mu.Lock()
				invalid = multierror.Append(invalid, fmt.Errorf("code #%d: %w", i, err))
				mu.Unlock()
				return nil
			}

			if ok {
				accepted.Inc()
			} else {
				rejected.Inc()
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Infof("add %d codes: %d accepted, %d rejected, %d invalid",
		len(codes), accepted.Load(), rejected.Load(), len(invalid.WrappedErrors()))

	return &Result{
		Accepted: accepted.Load(),
		Rejected: rejected.Load(),
		Invalid:  invalid.ErrorOrNil(),
	}, nil
}

func (s *service) Snapshot() *bucketlists.Snapshot[stock.Code] {
	return s.bucketLists.Snapshot()
}

func (s *service) Stats() Stats {
	return Stats{
		Accepted: s.accepted.Load(),
		Rejected: s.rejected.Load(),
		Invalid:  s.invalid.Load(),
	}
}
