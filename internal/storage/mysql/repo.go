package mysql

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"

	"github.com/cockroachdb/errors"

	"triposo/internal/domain"
)

// Repo is the MySQL-backed miss log. It stores lookup keys only, never
// records.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

var _ domain.MissLog = (*Repo)(nil)

// Migrate creates the misses table when it does not exist.
func (r *Repo) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createMissesSQL)
	return errors.Wrap(err, "create triposo_misses")
}

func (r *Repo) LogMiss(ctx context.Context, resource, query string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, missKey(resource, query), resource, query)
	return errors.Wrapf(err, "log miss %s", resource)
}

func (r *Repo) ListMisses(ctx context.Context, limit int) ([]domain.Miss, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listMissesSQL, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list misses")
	}
	defer rows.Close()

	var out []domain.Miss
	for rows.Next() {
		var m domain.Miss
		if err := rows.Scan(&m.Resource, &m.Query, &m.Count, &m.LastSeen); err != nil {
			return nil, errors.Wrap(err, "scan miss")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func missKey(resource, query string) string {
	sum := sha1.Sum([]byte(resource + "?" + query))
	return hex.EncodeToString(sum[:])
}
