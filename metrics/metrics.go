// Copyright 2023 Tracebook, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"github.com/rcrowley/go-metrics"
)

var (
	registry metrics.Registry
)

func SetRegistry(r metrics.Registry) {
	registry = r
}

// GitHubCacheApproxSize registers a gauge that monitors the approximate
// GitHub request lrucache memory size.
func GitHubCacheApproxSize(sizeFn func() int64) metrics.Gauge {
	return metrics.NewRegisteredFunctionalGauge("github.request_cache.approx_size", registry, sizeFn)
}

// WebhooksRecorded counts webhook payloads persisted to the store.
func WebhooksRecorded() metrics.Counter {
	return metrics.GetOrRegisterCounter("webhooks.recorded", registry)
}

// TokensIssued counts installation tokens fetched from GitHub on
// cache misses.
func TokensIssued() metrics.Counter {
	return metrics.GetOrRegisterCounter("tokens.issued", registry)
}
