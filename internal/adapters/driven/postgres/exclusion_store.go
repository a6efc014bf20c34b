package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ExclusionStore = (*ExclusionStore)(nil)

// ExclusionStore implements driven.ExclusionStore using PostgreSQL.
// Both rule sets live in a single row so they are replaced together.
type ExclusionStore struct {
	db *DB
}

// NewExclusionStore creates a new ExclusionStore
func NewExclusionStore(db *DB) *ExclusionStore {
	return &ExclusionStore{db: db}
}

// GetRules returns the saved rules, or empty sets when none were saved
func (s *ExclusionStore) GetRules(ctx context.Context) (domain.ExclusionRules, error) {
	query := `SELECT excluded_folders, excluded_domains FROM exclusion_rules WHERE id = 1`

	rules := domain.ExclusionRules{Folders: []string{}, Domains: []string{}}
	var folders, domains []string

	err := s.db.QueryRowContext(ctx, query).Scan(pq.Array(&folders), pq.Array(&domains))
	if err == sql.ErrNoRows {
		return rules, nil
	}
	if err != nil {
		return rules, storageErr("get exclusion rules", err)
	}

	if folders != nil {
		rules.Folders = folders
	}
	if domains != nil {
		rules.Domains = domains
	}
	return rules, nil
}

// SaveRules replaces both rule sets
func (s *ExclusionStore) SaveRules(ctx context.Context, rules domain.ExclusionRules) error {
	query := `
		INSERT INTO exclusion_rules (id, excluded_folders, excluded_domains, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET
			excluded_folders = EXCLUDED.excluded_folders,
			excluded_domains = EXCLUDED.excluded_domains,
			updated_at = EXCLUDED.updated_at
	`

	folders := rules.Folders
	if folders == nil {
		folders = []string{}
	}
	domains := rules.Domains
	if domains == nil {
		domains = []string{}
	}

	_, err := s.db.ExecContext(ctx, query, pq.Array(folders), pq.Array(domains))
	return storageErr("save exclusion rules", err)
}
