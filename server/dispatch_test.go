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

package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/palantir/go-githubapp/githubapp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracebook/github-bridge/server/handler"
	"github.com/tracebook/github-bridge/store"
)

const testWebhookSecret = "hunter2"

func newTestDispatcher(s store.Store) http.Handler {
	base := handler.Base{Store: s}
	return githubapp.NewEventDispatcher(
		[]githubapp.EventHandler{
			&handler.Installation{Base: base},
			&handler.Record{Base: base},
		},
		testWebhookSecret,
		githubapp.WithErrorCallback(WebhookErrorCallback(nil)),
		githubapp.WithResponseCallback(WebhookResponseCallback),
	)
}

func postWebhook(t *testing.T, d http.Handler, event, payload string, sign bool) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest(http.MethodPost, "/api/github/hook", strings.NewReader(payload))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("X-GitHub-Event", event)
	r.Header.Set("X-GitHub-Delivery", "test-delivery")
	if sign {
		mac := hmac.New(sha256.New, []byte(testWebhookSecret))
		mac.Write([]byte(payload))
		r.Header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}

	w := httptest.NewRecorder()
	d.ServeHTTP(w, r)
	return w
}

func TestWebhookDispatch(t *testing.T) {
	pingPayload := `{"zen": "Mind your words, they are important.", "sender": {"login": "octocat", "id": 1002300}}`

	t.Run("pingRespondsWithPong", func(t *testing.T) {
		d := newTestDispatcher(store.NewMemory())

		w := postWebhook(t, d, "ping", pingPayload, true)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "pong")
	})

	t.Run("missingSignatureIsForbidden", func(t *testing.T) {
		s := store.NewMemory()
		d := newTestDispatcher(s)

		w := postWebhook(t, d, "ping", pingPayload, false)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, s.Webhooks(), "unverified payloads must not be persisted")
	})

	t.Run("invalidSignatureIsForbidden", func(t *testing.T) {
		s := store.NewMemory()
		d := newTestDispatcher(s)

		r := httptest.NewRequest(http.MethodPost, "/api/github/hook", strings.NewReader(pingPayload))
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("X-GitHub-Event", "ping")
		r.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")

		w := httptest.NewRecorder()
		d.ServeHTTP(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, s.Webhooks())
	})

	t.Run("subscribedEventIsRecorded", func(t *testing.T) {
		s := store.NewMemory()
		d := newTestDispatcher(s)

		payload := `{"action": "opened", "sender": {"login": "octocat"}, "issue": {"number": 5}}`
		w := postWebhook(t, d, "issues", payload, true)
		assert.Equal(t, http.StatusOK, w.Code)

		webhooks := s.Webhooks()
		require.Len(t, webhooks, 1)
		assert.Equal(t, "issues", webhooks[0].Event)
		assert.Equal(t, "opened", webhooks[0].Action)
		assert.Equal(t, "octocat", webhooks[0].Sender)
		assert.JSONEq(t, payload, string(webhooks[0].Payload))
	})

	t.Run("unsubscribedEventIsAccepted", func(t *testing.T) {
		s := store.NewMemory()
		d := newTestDispatcher(s)

		w := postWebhook(t, d, "watch", `{"action": "started"}`, true)
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Empty(t, s.Webhooks())
	})
}
