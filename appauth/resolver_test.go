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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracebook/github-bridge/store"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()

	newStore := func(insts ...store.Installation) store.Store {
		s := store.NewMemory()
		for _, inst := range insts {
			require.NoError(t, s.CreateInstallation(ctx, inst))
		}
		return s
	}

	t.Run("singleInstallation", func(t *testing.T) {
		r := NewResolver(newStore(
			store.Installation{TenantID: "acme", InstallationID: 100, Sender: "1001"},
		))

		inst, err := r.Resolve(ctx, "acme", nil)
		require.NoError(t, err)
		assert.Equal(t, int64(100), inst.InstallationID)
	})

	t.Run("singleInstallationMismatchedSender", func(t *testing.T) {
		// a single candidate is accepted without narrowing, even when
		// the sender is not the current user
		r := NewResolver(newStore(
			store.Installation{TenantID: "acme", InstallationID: 100, Sender: "1001"},
		))

		inst, err := r.Resolve(ctx, "acme", &Identity{ExternalID: "9999"})
		require.NoError(t, err)
		assert.Equal(t, int64(100), inst.InstallationID)
	})

	t.Run("narrowedBySender", func(t *testing.T) {
		r := NewResolver(newStore(
			store.Installation{TenantID: "acme", InstallationID: 100, Sender: "1001"},
			store.Installation{TenantID: "acme", InstallationID: 200, Sender: "1002"},
		))

		inst, err := r.Resolve(ctx, "acme", &Identity{ExternalID: "1002"})
		require.NoError(t, err)
		assert.Equal(t, int64(200), inst.InstallationID)
	})

	t.Run("multipleNoMatchingSender", func(t *testing.T) {
		r := NewResolver(newStore(
			store.Installation{TenantID: "acme", InstallationID: 100, Sender: "1001"},
			store.Installation{TenantID: "acme", InstallationID: 200, Sender: "1002"},
		))

		_, err := r.Resolve(ctx, "acme", &Identity{ExternalID: "9999"})
		requireInstallationError(t, err, 0)
	})

	t.Run("multipleNoUser", func(t *testing.T) {
		r := NewResolver(newStore(
			store.Installation{TenantID: "acme", InstallationID: 100, Sender: "1001"},
			store.Installation{TenantID: "acme", InstallationID: 200, Sender: "1002"},
		))

		_, err := r.Resolve(ctx, "acme", nil)
		requireInstallationError(t, err, 2)
	})

	t.Run("zeroInstallations", func(t *testing.T) {
		r := NewResolver(newStore())

		_, err := r.Resolve(ctx, "acme", nil)
		requireInstallationError(t, err, 0)
	})

	t.Run("otherTenantIgnored", func(t *testing.T) {
		r := NewResolver(newStore(
			store.Installation{TenantID: "other", InstallationID: 100, Sender: "1001"},
		))

		_, err := r.Resolve(ctx, "acme", nil)
		requireInstallationError(t, err, 0)
	})
}

func requireInstallationError(t *testing.T, err error, candidates int) {
	t.Helper()

	var instErr *InstallationError
	require.Error(t, err)
	require.True(t, errors.As(err, &instErr), "expected an InstallationError, got %v", err)
	assert.Equal(t, candidates, instErr.Candidates)
}
