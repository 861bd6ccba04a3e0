// Copyright 2016 Google LLC. All Rights Reserved.
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

// Package sqlite is the SQLite-style reference backend (spec §6.3): a
// single table leaf(idx PRIMARY KEY, entry BLOB, hash BLOB), backed
// by modernc.org/sqlite (pure Go, no cgo) so it runs anywhere the core
// does.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/rs/zerolog"

	"github.com/dendrite-log/merkle/apperr"
	"github.com/dendrite-log/merkle/hash"
)

const schema = `
CREATE TABLE IF NOT EXISTS leaf (
	idx   INTEGER PRIMARY KEY,
	entry BLOB NOT NULL,
	hash  BLOB NOT NULL
);
`

// Backend is a storage.Backend over a single SQLite table.
type Backend struct {
	db     *sql.DB
	hasher *hash.Hasher
	log    zerolog.Logger
}

// Open opens (creating if necessary) a SQLite-backed store at dsn
// using the given hasher configuration. dsn follows modernc.org/sqlite
// conventions, e.g. "file:state.db" or ":memory:".
func Open(dsn string, hasher *hash.Hasher, log zerolog.Logger) (*Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperr.NewBackendError(err, "opening sqlite database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperr.NewBackendError(err, "creating leaf table")
	}
	return &Backend{db: db, hasher: hasher, log: log}, nil
}

// Close releases the underlying database handle.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Size returns the number of leaves currently stored.
func (b *Backend) Size(ctx context.Context) (uint64, error) {
	var n uint64
	row := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leaf`)
	if err := row.Scan(&n); err != nil {
		return 0, apperr.NewBackendError(err, "counting leaves")
	}
	return n, nil
}

// Append stores entry, computing its leaf digest, and returns the new
// 1-based index.
func (b *Backend) Append(ctx context.Context, entry []byte) (uint64, error) {
	digest := b.hasher.HashLeaf(entry)
	if _, err := b.db.ExecContext(ctx,
		`INSERT INTO leaf (idx, entry, hash) VALUES ((SELECT COALESCE(MAX(idx), 0) + 1 FROM leaf), ?, ?)`,
		entry, digest); err != nil {
		return 0, apperr.NewBackendError(err, "inserting leaf")
	}
	var idx uint64
	row := b.db.QueryRowContext(ctx, `SELECT MAX(idx) FROM leaf`)
	if err := row.Scan(&idx); err != nil {
		return 0, apperr.NewBackendError(err, "reading new index")
	}
	b.log.Debug().Uint64("index", idx).Msg("appended entry")
	return idx, nil
}

// Leaf returns the digest at the given 1-based index.
func (b *Backend) Leaf(ctx context.Context, index uint64) ([]byte, error) {
	var digest []byte
	row := b.db.QueryRowContext(ctx, `SELECT hash FROM leaf WHERE idx = ?`, index)
	if err := row.Scan(&digest); err != nil {
		if err == sql.ErrNoRows {
			size, _ := b.Size(ctx)
			return nil, apperr.NewIndexOutOfRange(index, size)
		}
		return nil, apperr.NewBackendError(err, fmt.Sprintf("reading leaf %d", index))
	}
	return digest, nil
}

// Leaves returns the ordered digests covering 0-based [offset, offset+width).
func (b *Backend) Leaves(ctx context.Context, offset, width uint64) ([][]byte, error) {
	size, err := b.Size(ctx)
	if err != nil {
		return nil, err
	}
	if offset+width > size {
		return nil, apperr.NewIndexOutOfRange(offset+width, size)
	}
	if width == 0 {
		return nil, nil
	}

	rows, err := b.db.QueryContext(ctx,
		`SELECT hash FROM leaf WHERE idx > ? AND idx <= ? ORDER BY idx ASC`,
		offset, offset+width)
	if err != nil {
		return nil, apperr.NewBackendError(err, "reading leaf range")
	}
	defer rows.Close()

	out := make([][]byte, 0, width)
	for rows.Next() {
		var digest []byte
		if err := rows.Scan(&digest); err != nil {
			return nil, apperr.NewBackendError(err, "scanning leaf range")
		}
		out = append(out, digest)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.NewBackendError(err, "iterating leaf range")
	}
	if uint64(len(out)) != width {
		return nil, apperr.NewBackendError(fmt.Errorf("expected %d rows, got %d", width, len(out)), "reading leaf range")
	}
	return out, nil
}
