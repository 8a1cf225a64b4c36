package domain

import (
	"context"
	"fmt"
)

func LoadDirectoryFromRepository(ctx context.Context, directory *OperatorDirectory, repo OperatorRepository) error {
	items, err := repo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load operators from db: %w", err)
	}
	directory.Load(items)

	return nil
}
