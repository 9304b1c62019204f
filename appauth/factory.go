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

package appauth

import (
	"context"

	"github.com/google/go-github/v65/github"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// TokenClientCreator builds GitHub clients from bearer tokens. It is
// satisfied by githubapp.ClientCreator.
type TokenClientCreator interface {
	NewTokenClient(token string) (*github.Client, error)
}

// ClientFactory constructs clients for a target repository. Private
// repositories use the short-lived installation token. Public ones
// prefer the long-lived bot credential when one is configured: the
// bot identity carries stable permissions for commenting on public
// repositories and does not consume installation rate limits.
//
// The credential is chosen before the returned client is built, so
// no client has its transport swapped after construction.
type ClientFactory struct {
	creator  TokenClientCreator
	tokens   *TokenCache
	botToken string
}

func NewClientFactory(creator TokenClientCreator, tokens *TokenCache, botToken string) *ClientFactory {
	return &ClientFactory{
		creator:  creator,
		tokens:   tokens,
		botToken: botToken,
	}
}

// RepoClient is the narrow client surface the tracker integration
// needs for a single repository.
type RepoClient struct {
	owner string
	name  string

	client     *github.Client
	repository *github.Repository
}

// NewRepoClient resolves the repository with the installation token
// and returns a client holding the credential appropriate for its
// visibility.
func (f *ClientFactory) NewRepoClient(ctx context.Context, installationID int64, owner, name string) (*RepoClient, error) {
	token, err := f.tokens.GetToken(ctx, installationID)
	if err != nil {
		return nil, err
	}

	client, err := f.creator.NewTokenClient(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create installation token client")
	}

	repository, _, err := client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get repository %s/%s", owner, name)
	}

	if !repository.GetPrivate() && f.botToken != "" {
		zerolog.Ctx(ctx).Debug().Msgf("Using bot credential for public repository %s/%s", owner, name)
		client, err = f.creator.NewTokenClient(f.botToken)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create bot token client")
		}
	}

	return &RepoClient{
		owner:      owner,
		name:       name,
		client:     client,
		repository: repository,
	}, nil
}

// Repository returns the resolved repository object.
func (c *RepoClient) Repository() *github.Repository {
	return c.repository
}

func (c *RepoClient) CreateIssue(ctx context.Context, title, body string) (*github.Issue, error) {
	issue, _, err := c.client.Issues.Create(ctx, c.owner, c.name, &github.IssueRequest{
		Title: &title,
		Body:  &body,
	})
	return issue, errors.Wrapf(err, "failed to create issue in %s/%s", c.owner, c.name)
}

func (c *RepoClient) CreateIssueComment(ctx context.Context, number int, body string) (*github.IssueComment, error) {
	comment, _, err := c.client.Issues.CreateComment(ctx, c.owner, c.name, number, &github.IssueComment{
		Body: &body,
	})
	return comment, errors.Wrapf(err, "failed to comment on %s/%s#%d", c.owner, c.name, number)
}
