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
	"errors"
	"net/http"

	"github.com/palantir/go-baseapp/baseapp"
	"github.com/palantir/go-githubapp/githubapp"
	"github.com/rcrowley/go-metrics"
	"github.com/rs/zerolog"
)

type PingResponse struct {
	Message string `json:"message"`
}

// WebhookErrorCallback rejects webhooks that fail signature or header
// validation with 403 Forbidden. Other errors keep the library's
// default handling.
func WebhookErrorCallback(reg metrics.Registry) githubapp.ErrorCallback {
	fallback := githubapp.MetricsErrorCallback(reg)
	return func(w http.ResponseWriter, r *http.Request, err error) {
		var ve githubapp.ValidationError
		if errors.As(err, &ve) {
			zerolog.Ctx(r.Context()).Warn().Err(ve.Cause).Msg("Rejecting webhook with invalid headers or signature")
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		fallback(w, r, err)
	}
}

// WebhookResponseCallback acknowledges ping events with a "pong" body
// and defers to the default callback otherwise.
func WebhookResponseCallback(w http.ResponseWriter, r *http.Request, event string, handled bool) {
	if event == "ping" {
		baseapp.WriteJSON(w, http.StatusOK, &PingResponse{Message: "pong"})
		return
	}
	githubapp.DefaultResponseCallback(w, r, event, handled)
}
