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

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codebucket-io/codebucket/version"
)

const (
	// Namespace is the namespace of codebucket metrics.
	Namespace = "codebucket"

	// ServiceSubsystem is the subsystem of service metrics.
	ServiceSubsystem = "service"
)

const (
	readHeaderTimeout = 10 * time.Second
)

// Variables declared for metrics.
var (
	AddCodeCount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: ServiceSubsystem,
		Name:      "add_code_total",
		Help:      "Counter of the number of the adding code.",
	})

	AddCodeRejectedCount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: ServiceSubsystem,
		Name:      "add_code_rejected_total",
		Help:      "Counter of the number of the code rejected as duplicate or by a full bucket.",
	})

	AddCodeInvalidCount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: ServiceSubsystem,
		Name:      "add_code_invalid_total",
		Help:      "Counter of the number of the invalid code.",
	})

	GroupGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: ServiceSubsystem,
		Name:      "group_total",
		Help:      "Gauge of the number of the groups.",
	})

	FlattenedSizeGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: ServiceSubsystem,
		Name:      "flattened_size",
		Help:      "Gauge of the length of the flattened view.",
	})

	VersionGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: ServiceSubsystem,
		Name:      "version",
		Help:      "Version info of the service.",
	}, []string{"major", "minor", "git_version", "platform", "build_day"})
)

// New returns a metrics http server.
func New(addr string) *http.Server {
	VersionGauge.WithLabelValues(version.Major, version.Minor, version.GitVersion, version.Platform, version.BuildDay).Set(1)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
