// Copyright 2024 Tracebook, Inc.
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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/palantir/go-baseapp/baseapp"
	"github.com/rs/zerolog"

	"github.com/tracebook/github-bridge/appauth"
	"github.com/tracebook/github-bridge/server/apierror"
)

// Report files a tracker bug as a GitHub issue on behalf of a tenant.
// It exercises the full integration path: resolve the installation,
// obtain a cached token, and build a client with the credential
// matching the repository's visibility.
type Report struct {
	Base
}

type ReportRequest struct {
	Tenant string `json:"tenant"`
	User   string `json:"user"`
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

type ReportResponse struct {
	IssueURL string `json:"issue_url"`
	Number   int    `json:"number"`
}

func (h *Report) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apierror.WriteAPIError(w, http.StatusBadRequest, "failed to parse request body")
	}
	if req.Tenant == "" || req.Owner == "" || req.Repo == "" || req.Title == "" {
		return apierror.WriteAPIError(w, http.StatusBadRequest, "tenant, owner, repo and title are required")
	}

	var user *appauth.Identity
	if req.User != "" {
		user = &appauth.Identity{ExternalID: req.User}
	}

	installation, err := h.Resolver.Resolve(ctx, req.Tenant, user)
	if err != nil {
		var instErr *appauth.InstallationError
		if errors.As(err, &instErr) {
			return apierror.WriteAPIError(w, http.StatusUnprocessableEntity, instErr.Error())
		}
		return err
	}

	client, err := h.Factory.NewRepoClient(ctx, installation.InstallationID, req.Owner, req.Repo)
	if err != nil {
		return err
	}

	issue, err := client.CreateIssue(ctx, req.Title, req.Body)
	if err != nil {
		return err
	}

	logger.Info().Msgf("Created issue %s/%s#%d for tenant %q", req.Owner, req.Repo, issue.GetNumber(), req.Tenant)
	baseapp.WriteJSON(w, http.StatusCreated, &ReportResponse{
		IssueURL: issue.GetHTMLURL(),
		Number:   issue.GetNumber(),
	})
	return nil
}
