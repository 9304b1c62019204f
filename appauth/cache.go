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

// Package appauth resolves GitHub App installations for tenants and
// exchanges them for cached installation access tokens.
package appauth

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Cache.Get when a key is absent or its
// entry has expired.
var ErrNotFound = errors.New("appauth: cache key not found")

// Cache is the shared key-value cache used for installation tokens.
// Implementations do not need transactional semantics: concurrent
// writers may race and the last write wins.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// IsNotFound reports whether err is a cache miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
