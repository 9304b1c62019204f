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

package appauth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v65/github"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultTokenTTL is how long issued tokens are cached. GitHub
// installation tokens expire after one hour; caching for 50 minutes
// leaves a margin for clock skew and in-flight requests.
const DefaultTokenTTL = 50 * time.Minute

// TokenIssuer creates a new installation access token. Issuing is
// rate-limited and network-bound, so callers should cache results.
type TokenIssuer interface {
	IssueToken(ctx context.Context, installationID int64) (string, error)
}

// TokenCache returns installation tokens, fetching a fresh one from
// the issuer when the cache has no live entry.
//
// There is no single-flight deduplication: two concurrent misses for
// the same installation may both hit the issuer. Token creation is
// idempotent and either result is valid to cache, so the extra call
// is tolerated.
type TokenCache struct {
	issuer TokenIssuer
	cache  Cache
	ttl    time.Duration
}

func NewTokenCache(issuer TokenIssuer, cache Cache) *TokenCache {
	return &TokenCache{
		issuer: issuer,
		cache:  cache,
		ttl:    DefaultTokenTTL,
	}
}

// WithTTL overrides the cache TTL. The TTL must stay below the real
// token lifetime.
func (t *TokenCache) WithTTL(ttl time.Duration) *TokenCache {
	t.ttl = ttl
	return t
}

// GetToken returns a live token for the installation. Issuer failures
// propagate to the caller without retries.
func (t *TokenCache) GetToken(ctx context.Context, installationID int64) (string, error) {
	key := tokenKey(installationID)

	token, err := t.cache.Get(ctx, key)
	if err == nil {
		return token, nil
	}
	if !IsNotFound(err) {
		return "", err
	}

	token, err = t.issuer.IssueToken(ctx, installationID)
	if err != nil {
		return "", errors.Wrapf(err, "failed to issue token for installation %d", installationID)
	}

	if err := t.cache.Set(ctx, key, token, t.ttl); err != nil {
		// the token is still usable, losing the cache write only
		// costs an extra issuer call later
		zerolog.Ctx(ctx).Warn().Err(err).Msgf("Failed to cache token for installation %d", installationID)
	}
	return token, nil
}

func tokenKey(installationID int64) string {
	return fmt.Sprintf("token-for-%d", installationID)
}

// AppsIssuer issues tokens through the GitHub Apps API using an
// app-authenticated client.
type AppsIssuer struct {
	client *github.Client
}

func NewAppsIssuer(appClient *github.Client) *AppsIssuer {
	return &AppsIssuer{client: appClient}
}

func (i *AppsIssuer) IssueToken(ctx context.Context, installationID int64) (string, error) {
	token, _, err := i.client.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create installation token")
	}
	return token.GetToken(), nil
}

var _ TokenIssuer = &AppsIssuer{}
