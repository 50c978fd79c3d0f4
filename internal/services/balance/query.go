package balance

import (
	"context"
	"fmt"

	"github.com/fastprodman/arcadeledger/internal/infra/pgutils"
	"github.com/fastprodman/arcadeledger/internal/repos/entries"
	"github.com/google/uuid"
)

// History returns the account's entries, newest first. limit is clamped to
// (0, MaxHistoryLimit]; zero means DefaultHistoryLimit.
func (s *Service) History(ctx context.Context, accountID uuid.UUID, limit int) ([]entries.Entry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	_, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("history: %w", pgutils.Classify(err))
	}

	list, err := s.entries.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", pgutils.Classify(err))
	}

	return list, nil
}

func (s *Service) Entry(ctx context.Context, id uuid.UUID) (entries.Entry, error) {
	e, err := s.entries.Get(ctx, id)
	if err != nil {
		return entries.Entry{}, fmt.Errorf("get entry: %w", pgutils.Classify(err))
	}

	return e, nil
}
