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
	"os"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/palantir/go-baseapp/baseapp"
	"github.com/palantir/go-baseapp/baseapp/datadog"
	"github.com/palantir/go-githubapp/githubapp"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/tracebook/github-bridge/appauth"
)

const (
	DefaultEnvPrefix = "GITHUBBRIDGE_"
)

type Config struct {
	Server   baseapp.HTTPConfig `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	Cache    CachingConfig      `yaml:"cache"`
	Github   githubapp.Config   `yaml:"github"`
	Bot      BotConfig          `yaml:"bot"`
	API      APIConfig          `yaml:"api"`
	Database DatabaseConfig     `yaml:"database"`
	Datadog  datadog.Config     `yaml:"datadog"`
	Workers  WorkerConfig       `yaml:"workers"`
}

type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	Text  bool   `yaml:"text" json:"text"`
}

func (c *LoggingConfig) SetValuesFromEnv(prefix string) {
	if v, ok := os.LookupEnv(prefix + "LOG_LEVEL"); ok {
		c.Level = v
	}
}

// BotConfig holds the optional long-lived bot account token used on
// public repositories in place of installation tokens.
type BotConfig struct {
	Token string `yaml:"token"`
}

func (c *BotConfig) SetValuesFromEnv(prefix string) {
	if v, ok := os.LookupEnv(prefix + "BOT_TOKEN"); ok {
		c.Token = v
	}
}

// APIConfig configures the shared secret for the tracker-facing API
// routes.
type APIConfig struct {
	Secret string `yaml:"secret"`
}

func (c *APIConfig) SetValuesFromEnv(prefix string) {
	if v, ok := os.LookupEnv(prefix + "API_SECRET"); ok {
		c.Secret = v
	}
}

type CachingConfig struct {
	// MaxSize bounds the in-memory cache of GitHub API responses.
	MaxSize datasize.ByteSize `yaml:"max_size"`

	// Redis, when configured, provides the cluster-wide installation
	// token cache. Without it tokens are cached per process.
	Redis appauth.RedisConfig `yaml:"redis"`

	// TokenTTL overrides how long installation tokens are cached. It
	// must stay below the one hour token lifetime.
	TokenTTL time.Duration `yaml:"token_ttl"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

func (c *DatabaseConfig) SetValuesFromEnv(prefix string) {
	if v, ok := os.LookupEnv(prefix + "DATABASE_DSN"); ok {
		c.DSN = v
	}
}

type WorkerConfig struct {
	Workers       int           `yaml:"workers"`
	QueueSize     int           `yaml:"queue_size"`
	GithubTimeout time.Duration `yaml:"github_timeout"`
}

func ParseConfig(bytes []byte) (*Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(bytes, &c); err != nil {
		return nil, errors.Wrapf(err, "failed unmarshalling yaml")
	}

	envPrefix := DefaultEnvPrefix
	if v, ok := os.LookupEnv("GITHUBBRIDGE_ENV_PREFIX"); ok {
		envPrefix = v
	}

	c.Server.SetValuesFromEnv(envPrefix)
	c.Logging.SetValuesFromEnv(envPrefix)
	c.Bot.SetValuesFromEnv(envPrefix)
	c.API.SetValuesFromEnv(envPrefix)
	c.Database.SetValuesFromEnv(envPrefix)
	c.Github.SetValuesFromEnv("")

	return &c, nil
}
