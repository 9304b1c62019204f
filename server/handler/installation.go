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
	"encoding/json"
	"strconv"

	"github.com/google/go-github/v65/github"
	"github.com/palantir/go-githubapp/githubapp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/tracebook/github-bridge/store"
)

type Installation struct {
	Base

	// TenantForLogin maps the installing account to a tenant. Tenant
	// assignment belongs to the hosting application; the default maps
	// each account login to a tenant of the same name.
	TenantForLogin func(login string) string
}

func (h *Installation) Handles() []string {
	return []string{"installation"}
}

// Handle installation
// https://docs.github.com/en/developers/webhooks-and-events/webhooks/webhook-events-and-payloads#installation
func (h *Installation) Handle(ctx context.Context, eventType, deliveryID string, payload []byte) error {
	var event github.InstallationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return errors.Wrap(err, "failed to parse installation event payload")
	}

	if err := h.RecordWebhook(ctx, eventType, payload); err != nil {
		return err
	}

	logger := zerolog.Ctx(ctx)
	installationID := githubapp.GetInstallationIDFromEvent(&event)

	switch event.GetAction() {
	case "created":
		inst := store.Installation{
			TenantID:       h.tenantID(event.GetInstallation().GetAccount().GetLogin()),
			InstallationID: installationID,
			Sender:         strconv.FormatInt(event.GetSender().GetID(), 10),
		}
		if err := h.Store.CreateInstallation(ctx, inst); err != nil {
			return errors.Wrapf(err, "failed to record installation %d", installationID)
		}
		logger.Info().Msgf("Recorded installation %d for tenant %q", installationID, inst.TenantID)

	case "deleted":
		if err := h.Store.DeleteInstallation(ctx, installationID); err != nil {
			return errors.Wrapf(err, "failed to delete installation %d", installationID)
		}
		logger.Info().Msgf("Deleted installation %d", installationID)
	}

	return nil
}

func (h *Installation) tenantID(login string) string {
	if h.TenantForLogin != nil {
		return h.TenantForLogin(login)
	}
	return login
}
