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
	"context"
	"fmt"
	"time"

	"github.com/bluekeyes/hatpear"
	"github.com/c2h5oh/datasize"
	"github.com/die-net/lrucache"
	"github.com/gregjones/httpcache"
	"github.com/palantir/go-baseapp/baseapp"
	"github.com/palantir/go-baseapp/baseapp/datadog"
	"github.com/palantir/go-githubapp/githubapp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"goji.io/pat"

	"github.com/tracebook/github-bridge/appauth"
	"github.com/tracebook/github-bridge/metrics"
	"github.com/tracebook/github-bridge/server/handler"
	"github.com/tracebook/github-bridge/server/middleware"
	"github.com/tracebook/github-bridge/store"
	"github.com/tracebook/github-bridge/version"
)

const (
	DefaultGitHubTimeout = 10 * time.Second

	DefaultWebhookWorkers   = 10
	DefaultWebhookQueueSize = 100

	DefaultHTTPCacheSize = 50 * datasize.MB
)

type Server struct {
	config *Config
	base   *baseapp.Server
}

// New instantiates a new Server.
// Callers must then invoke Start to run the Server.
func New(c *Config) (*Server, error) {
	ctx := context.Background()

	logger := baseapp.NewLogger(baseapp.LoggingConfig{
		Level:  c.Logging.Level,
		Pretty: c.Logging.Text,
	})

	base, err := baseapp.NewServer(c.Server, baseapp.DefaultParams(logger, "githubbridge.")...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize base server")
	}
	metrics.SetRegistry(base.Registry())

	maxSize := int64(DefaultHTTPCacheSize)
	if c.Cache.MaxSize != 0 {
		maxSize = int64(c.Cache.MaxSize)
	}
	githubCache := lrucache.New(maxSize, 0)
	metrics.GitHubCacheApproxSize(githubCache.Size)

	githubTimeout := c.Workers.GithubTimeout
	if githubTimeout == 0 {
		githubTimeout = DefaultGitHubTimeout
	}

	userAgent := fmt.Sprintf("github-bridge/%s", version.GetVersion())
	cc, err := githubapp.NewDefaultCachingClientCreator(
		c.Github,
		githubapp.WithClientUserAgent(userAgent),
		githubapp.WithClientTimeout(githubTimeout),
		githubapp.WithClientCaching(true, func() httpcache.Cache {
			return githubCache
		}),
		githubapp.WithClientMiddleware(
			githubapp.ClientLogging(zerolog.DebugLevel),
			githubapp.ClientMetrics(base.Registry()),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize client creator")
	}

	appClient, err := cc.NewAppClient()
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize GitHub app client")
	}

	app, _, err := appClient.Apps.Get(ctx, "")
	if err != nil {
		return nil, errors.Wrap(err, "failed to get configured GitHub app")
	}

	var payloadStore store.Store
	if c.Database.DSN != "" {
		pg, err := store.NewPostgres(ctx, c.Database.DSN)
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize database")
		}
		if err := pg.Migrate(ctx); err != nil {
			return nil, errors.Wrap(err, "failed to migrate database")
		}
		payloadStore = pg
	} else {
		logger.Warn().Msg("No database configured, using in-memory store")
		payloadStore = store.NewMemory()
	}

	var tokenCache appauth.Cache
	if c.Cache.Redis.Address != "" {
		tokenCache, err = appauth.NewRedisCache(ctx, c.Cache.Redis)
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize redis cache")
		}
	} else {
		logger.Warn().Msg("No redis configured, caching tokens per process")
		tokenCache = appauth.NewMemoryCache()
	}

	tokens := appauth.NewTokenCache(&countingIssuer{appauth.NewAppsIssuer(appClient)}, tokenCache)
	if c.Cache.TokenTTL > 0 {
		tokens = tokens.WithTTL(c.Cache.TokenTTL)
	}

	baseHandler := handler.Base{
		ClientCreator: cc,
		Store:         payloadStore,
		Tokens:        tokens,
		Resolver:      appauth.NewResolver(payloadStore),
		Factory:       appauth.NewClientFactory(cc, tokens, c.Bot.Token),
		BaseConfig:    &c.Server,
		AppName:       app.GetSlug(),
	}

	queueSize := c.Workers.QueueSize
	if queueSize < 1 {
		queueSize = DefaultWebhookQueueSize
	}

	workers := c.Workers.Workers
	if workers < 1 {
		workers = DefaultWebhookWorkers
	}

	dispatcher := githubapp.NewEventDispatcher(
		[]githubapp.EventHandler{
			&handler.Installation{Base: baseHandler},
			&handler.Record{Base: baseHandler},
		},
		c.Github.App.WebhookSecret,
		githubapp.WithErrorCallback(WebhookErrorCallback(base.Registry())),
		githubapp.WithResponseCallback(WebhookResponseCallback),
		githubapp.WithScheduler(
			githubapp.QueueAsyncScheduler(
				queueSize, workers,
				githubapp.WithSchedulingMetrics(base.Registry()),
				githubapp.WithAsyncErrorCallback(githubapp.MetricsAsyncErrorCallback(base.Registry())),
			),
		),
	)

	mux := base.Mux()

	// webhook route
	mux.Handle(pat.Post(githubapp.DefaultWebhookRoute), dispatcher)

	// API routes
	mux.Handle(pat.Get("/api/health"), handler.Health())
	mux.Handle(pat.Post("/api/report"),
		middleware.APIAuth(c.API.Secret)(hatpear.Try(&handler.Report{Base: baseHandler})))

	return &Server{
		config: c,
		base:   base,
	}, nil
}

// Start is blocking and long-running
func (s *Server) Start() error {
	if s.config.Datadog.Address != "" {
		if err := datadog.StartEmitter(s.base, s.config.Datadog); err != nil {
			return err
		}
	}
	return s.base.Start()
}

// countingIssuer increments the issued-token counter around the real
// issuer so cache effectiveness is visible in metrics.
type countingIssuer struct {
	appauth.TokenIssuer
}

func (i *countingIssuer) IssueToken(ctx context.Context, installationID int64) (string, error) {
	token, err := i.TokenIssuer.IssueToken(ctx, installationID)
	if err == nil {
		metrics.TokensIssued().Inc(1)
	}
	return token, err
}
