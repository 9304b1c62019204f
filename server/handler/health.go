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
	"net/http"

	"github.com/palantir/go-baseapp/baseapp"

	"github.com/tracebook/github-bridge/version"
)

type HealthCheck struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func Health() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		baseapp.WriteJSON(w, http.StatusOK, &HealthCheck{
			Status:  "ok",
			Version: version.GetVersion(),
		})
	})
}
