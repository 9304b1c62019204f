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
	"sync"
	"time"
)

// Memory is an in-process Store for tests and local development.
type Memory struct {
	mu            sync.Mutex
	installations []Installation
	webhooks      []WebhookPayload
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) CreateInstallation(ctx context.Context, inst Installation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.installations {
		if existing.TenantID == inst.TenantID && existing.InstallationID == inst.InstallationID {
			return nil
		}
	}
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = time.Now()
	}
	m.installations = append(m.installations, inst)
	return nil
}

func (m *Memory) DeleteInstallation(ctx context.Context, installationID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.installations[:0]
	for _, inst := range m.installations {
		if inst.InstallationID != installationID {
			kept = append(kept, inst)
		}
	}
	m.installations = kept
	return nil
}

func (m *Memory) InstallationsForTenant(ctx context.Context, tenantID string) ([]Installation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var insts []Installation
	for _, inst := range m.installations {
		if inst.TenantID == tenantID {
			insts = append(insts, inst)
		}
	}
	return insts, nil
}

func (m *Memory) RecordWebhook(ctx context.Context, p WebhookPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ReceivedOn.IsZero() {
		p.ReceivedOn = time.Now()
	}
	m.webhooks = append(m.webhooks, p)
	return nil
}

// Webhooks returns a copy of all recorded payloads.
func (m *Memory) Webhooks() []WebhookPayload {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]WebhookPayload(nil), m.webhooks...)
}

var _ Store = &Memory{}
