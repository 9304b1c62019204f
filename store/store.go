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

package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Installation records a GitHub App installation owned by a tenant.
// Rows are created when an installation webhook arrives and deleted
// when the app is uninstalled; they are never updated.
type Installation struct {
	TenantID       string
	InstallationID int64
	Sender         string
	CreatedAt      time.Time
}

// WebhookPayload holds a received webhook for later inspection. The
// raw payload is stored verbatim.
type WebhookPayload struct {
	ID         uuid.UUID
	Event      string
	Action     string
	Sender     string
	ReceivedOn time.Time
	Payload    json.RawMessage
}

type Store interface {
	// CreateInstallation records an installation. Recording the same
	// installation ID for the same tenant twice is a no-op.
	CreateInstallation(ctx context.Context, inst Installation) error

	// DeleteInstallation removes an installation by its external ID.
	// Deleting an unknown installation is not an error.
	DeleteInstallation(ctx context.Context, installationID int64) error

	// InstallationsForTenant returns all installations owned by the
	// tenant, oldest first.
	InstallationsForTenant(ctx context.Context, tenantID string) ([]Installation, error)

	// RecordWebhook persists a webhook payload.
	RecordWebhook(ctx context.Context, p WebhookPayload) error
}
