package service

import (
	"context"

	"github.com/samuelstevens/ghrel/internal/logging"
	"github.com/samuelstevens/ghrel/internal/state"
)

// PruneService removes orphaned packages.
type PruneService struct {
	loader PackageLoader
	store  *state.Store
	logger logging.Logger
}

// NewPruneService creates a prune service.
func NewPruneService(loader PackageLoader, store *state.Store, logger logging.Logger) *PruneService {
	return &PruneService{loader: loader, store: store, logger: logging.OrNop(logger)}
}

// PruneRequest contains the parameters for a prune.
type PruneRequest struct {
	DryRun bool
}

// PruneResult lists the orphans that were (or would be) removed.
type PruneResult struct {
	DryRun bool
	Pruned []state.Pruned
}

// Prune deletes the binary and state entry of every orphan. A dry run
// reads the state without the lock and changes nothing.
func (s *PruneService) Prune(ctx context.Context, req PruneRequest) (*PruneResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.loader.CheckDir(); err != nil {
		return nil, err
	}
	declared, err := s.loader.Names()
	if err != nil {
		return nil, err
	}

	result := &PruneResult{DryRun: req.DryRun}
	if req.DryRun {
		st, err := s.store.Read()
		if err != nil {
			return nil, err
		}
		result.Pruned, err = s.store.Prune(st, declared, true)
		return result, err
	}

	lock, err := s.store.Lock()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			s.logger.Warn("release state lock", "error", err)
		}
	}()

	st, err := s.store.Read()
	if err != nil {
		return nil, err
	}
	result.Pruned, err = s.store.Prune(st, declared, false)
	return result, err
}
