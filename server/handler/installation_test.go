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

package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracebook/github-bridge/store"
)

const installationCreatedPayload = `{
  "action": "created",
  "installation": {
    "id": 4242,
    "account": {"login": "acme", "id": 77}
  },
  "sender": {"login": "octocat", "id": 1002300}
}`

const installationDeletedPayload = `{
  "action": "deleted",
  "installation": {
    "id": 4242,
    "account": {"login": "acme", "id": 77}
  },
  "sender": {"login": "octocat", "id": 1002300}
}`

func TestInstallationHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("createdRecordsInstallation", func(t *testing.T) {
		s := store.NewMemory()
		h := &Installation{Base: Base{Store: s}}

		err := h.Handle(ctx, "installation", "d1", []byte(installationCreatedPayload))
		require.NoError(t, err)

		insts, err := s.InstallationsForTenant(ctx, "acme")
		require.NoError(t, err)
		require.Len(t, insts, 1)
		assert.Equal(t, int64(4242), insts[0].InstallationID)
		assert.Equal(t, "1002300", insts[0].Sender)

		webhooks := s.Webhooks()
		require.Len(t, webhooks, 1)
		assert.Equal(t, "installation", webhooks[0].Event)
		assert.Equal(t, "created", webhooks[0].Action)
	})

	t.Run("createdIsIdempotent", func(t *testing.T) {
		s := store.NewMemory()
		h := &Installation{Base: Base{Store: s}}

		require.NoError(t, h.Handle(ctx, "installation", "d1", []byte(installationCreatedPayload)))
		require.NoError(t, h.Handle(ctx, "installation", "d2", []byte(installationCreatedPayload)))

		insts, err := s.InstallationsForTenant(ctx, "acme")
		require.NoError(t, err)
		assert.Len(t, insts, 1)
	})

	t.Run("deletedRemovesInstallation", func(t *testing.T) {
		s := store.NewMemory()
		h := &Installation{Base: Base{Store: s}}

		require.NoError(t, h.Handle(ctx, "installation", "d1", []byte(installationCreatedPayload)))
		require.NoError(t, h.Handle(ctx, "installation", "d2", []byte(installationDeletedPayload)))

		insts, err := s.InstallationsForTenant(ctx, "acme")
		require.NoError(t, err)
		assert.Empty(t, insts)

		// both payloads remain on record
		assert.Len(t, s.Webhooks(), 2)
	})

	t.Run("customTenantMapping", func(t *testing.T) {
		s := store.NewMemory()
		h := &Installation{
			Base:           Base{Store: s},
			TenantForLogin: func(login string) string { return "tenant-" + login },
		}

		require.NoError(t, h.Handle(ctx, "installation", "d1", []byte(installationCreatedPayload)))

		insts, err := s.InstallationsForTenant(ctx, "tenant-acme")
		require.NoError(t, err)
		assert.Len(t, insts, 1)
	})
}
