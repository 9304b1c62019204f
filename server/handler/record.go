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
)

// RecordedEvents is the set of webhook events the app subscribes to,
// beyond those with dedicated handlers. Payloads for these are
// persisted without further processing.
var RecordedEvents = []string{
	"installation_repositories",
	"issues",
	"issue_comment",
	"label",
	"milestone",
	"public",
	"push",
	"release",
	"repository",
	"star",
}

// Record persists payloads for any event it is registered for.
// Register it after handlers with specialized behavior; the
// dispatcher gives earlier handlers priority for shared events.
type Record struct {
	Base
}

func (h *Record) Handles() []string {
	return RecordedEvents
}

func (h *Record) Handle(ctx context.Context, eventType, deliveryID string, payload []byte) error {
	return h.RecordWebhook(ctx, eventType, payload)
}
