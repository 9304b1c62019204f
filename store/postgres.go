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

package store

import (
	"context"
	_ "embed"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

//go:embed schema.sql
var schema string

type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database and verifies the connection.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}
	return &Postgres{pool: pool}, nil
}

// Migrate applies the embedded schema. Statements are idempotent so
// this is safe to run on every start.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schema)
	return errors.Wrap(err, "failed to apply schema")
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) CreateInstallation(ctx context.Context, inst Installation) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO installations (tenant_id, installation_id, sender)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (tenant_id, installation_id) DO NOTHING`,
		inst.TenantID, inst.InstallationID, inst.Sender)
	return errors.Wrap(err, "failed to insert installation")
}

func (p *Postgres) DeleteInstallation(ctx context.Context, installationID int64) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM installations WHERE installation_id = $1`, installationID)
	return errors.Wrap(err, "failed to delete installation")
}

func (p *Postgres) InstallationsForTenant(ctx context.Context, tenantID string) ([]Installation, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT tenant_id, installation_id, sender, created_at
		 FROM installations WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query installations")
	}
	defer rows.Close()

	var insts []Installation
	for rows.Next() {
		var inst Installation
		if err := rows.Scan(&inst.TenantID, &inst.InstallationID, &inst.Sender, &inst.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan installation")
		}
		insts = append(insts, inst)
	}
	return insts, errors.Wrap(rows.Err(), "failed to read installations")
}

func (p *Postgres) RecordWebhook(ctx context.Context, w WebhookPayload) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO webhook_payloads (id, event, action, sender, received_on, payload)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		w.ID.String(), w.Event, w.Action, w.Sender, w.ReceivedOn, []byte(w.Payload))
	return errors.Wrap(err, "failed to insert webhook payload")
}

var _ Store = &Postgres{}
