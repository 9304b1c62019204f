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
	"time"

	"github.com/google/uuid"
	"github.com/palantir/go-baseapp/baseapp"
	"github.com/palantir/go-githubapp/githubapp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/tracebook/github-bridge/appauth"
	"github.com/tracebook/github-bridge/metrics"
	"github.com/tracebook/github-bridge/store"
)

type Base struct {
	githubapp.ClientCreator

	Store      store.Store
	Tokens     *appauth.TokenCache
	Resolver   *appauth.Resolver
	Factory    *appauth.ClientFactory
	BaseConfig *baseapp.HTTPConfig

	AppName string
}

// eventMeta is the minimal shape shared by all webhook payloads.
type eventMeta struct {
	Action string `json:"action"`
	Sender struct {
		Login string `json:"login"`
	} `json:"sender"`
}

// RecordWebhook persists a verified payload. The action and sender
// are lifted out of the body for indexed queries.
func (b *Base) RecordWebhook(ctx context.Context, eventType string, payload []byte) error {
	var meta eventMeta
	if err := json.Unmarshal(payload, &meta); err != nil {
		return errors.Wrap(err, "failed to parse webhook payload")
	}

	record := store.WebhookPayload{
		ID:         uuid.New(),
		Event:      eventType,
		Action:     meta.Action,
		Sender:     meta.Sender.Login,
		ReceivedOn: time.Now(),
		Payload:    json.RawMessage(payload),
	}

	if err := b.Store.RecordWebhook(ctx, record); err != nil {
		return errors.Wrap(err, "failed to record webhook payload")
	}

	metrics.WebhooksRecorded().Inc(1)
	zerolog.Ctx(ctx).Debug().Msgf("Recorded %q webhook from %q", eventType, record.Sender)
	return nil
}
