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

	"github.com/pkg/errors"

	"github.com/tracebook/github-bridge/store"
)

// Identity is the external (GitHub) identity linked to the current
// tracker user. Users without a linked account have none.
type Identity struct {
	ExternalID string
}

// InstallationError reports that a tenant resolved to zero or more
// than one installation. This is a configuration problem and is not
// retryable.
type InstallationError struct {
	TenantID   string
	Candidates int
}

func (e *InstallationError) Error() string {
	return fmt.Sprintf("cannot find GitHub App installation for tenant %q (%d candidates)", e.TenantID, e.Candidates)
}

// Resolver selects the single App installation that applies to a
// tenant and, optionally, a user.
type Resolver struct {
	store store.Store
}

func NewResolver(s store.Store) *Resolver {
	return &Resolver{store: s}
}

// Resolve returns the tenant's installation. When the tenant has
// several, usually because individual contributors installed a
// public app on their own accounts, candidates are narrowed to those
// installed by the current user's linked identity. Narrowing is
// skipped for a single candidate so that a valid single-installation
// tenant is not rejected over a sender mismatch.
func (r *Resolver) Resolve(ctx context.Context, tenantID string, user *Identity) (store.Installation, error) {
	candidates, err := r.store.InstallationsForTenant(ctx, tenantID)
	if err != nil {
		return store.Installation{}, errors.Wrapf(err, "failed to list installations for tenant %q", tenantID)
	}

	if len(candidates) > 1 && user != nil && user.ExternalID != "" {
		var matched []store.Installation
		for _, c := range candidates {
			if c.Sender == user.ExternalID {
				matched = append(matched, c)
			}
		}
		candidates = matched
	}

	if len(candidates) != 1 {
		return store.Installation{}, &InstallationError{TenantID: tenantID, Candidates: len(candidates)}
	}
	return candidates[0], nil
}
