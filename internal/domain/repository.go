package domain

import "context"

type OperatorRepository interface {
	Upsert(ctx context.Context, op LearnedOperator) error
	ListAll(ctx context.Context) ([]LearnedOperator, error)
}
