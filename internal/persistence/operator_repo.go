package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/detekto/cellwatch/internal/domain"
)

// OperatorRepo stores learned operator code to name mappings.
type OperatorRepo struct {
	db *sql.DB
}

func NewOperatorRepo(db *sql.DB) *OperatorRepo {
	return &OperatorRepo{db: db}
}

func (r *OperatorRepo) Upsert(ctx context.Context, op domain.LearnedOperator) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO operators(code, name, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			updated_at = excluded.updated_at
	`, op.Code, op.Name, toUnixMillis(op.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert operator: %w", err)
	}

	return nil
}

func (r *OperatorRepo) ListAll(ctx context.Context) ([]domain.LearnedOperator, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT code, name, updated_at
		FROM operators
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("list operators: %w", err)
	}
	defer rows.Close()

	var out []domain.LearnedOperator
	for rows.Next() {
		var (
			op    domain.LearnedOperator
			updMs int64
		)
		if err := rows.Scan(&op.Code, &op.Name, &updMs); err != nil {
			return nil, fmt.Errorf("scan operator: %w", err)
		}
		op.UpdatedAt = fromUnixMillis(updMs)
		out = append(out, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operators: %w", err)
	}

	return out, nil
}
