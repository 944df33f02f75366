package service

import (
	"context"

	"github.com/samuelstevens/ghrel/internal/state"
)

// ListService reports what the state file records.
type ListService struct {
	loader PackageLoader
	store  *state.Store
}

// NewListService creates a list service.
func NewListService(loader PackageLoader, store *state.Store) *ListService {
	return &ListService{loader: loader, store: store}
}

// Installed is one state entry.
type Installed struct {
	Name       string
	Version    string
	BinaryPath string
	// Orphan is set when no descriptor declares the package.
	Orphan bool
}

// ListResult contains the installed packages sorted by name.
type ListResult struct {
	Packages []Installed
}

// List reads the state file without taking the lock.
func (s *ListService) List(ctx context.Context) (*ListResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st, err := s.store.Read()
	if err != nil {
		return nil, err
	}
	declared, err := s.loader.Names()
	if err != nil {
		return nil, err
	}

	result := &ListResult{Packages: make([]Installed, 0, len(st.Packages))}
	for _, name := range st.Names() {
		ps := st.Packages[name]
		result.Packages = append(result.Packages, Installed{
			Name:       name,
			Version:    ps.Version,
			BinaryPath: ps.BinaryPath,
			Orphan:     !declared[name],
		})
	}
	return result, nil
}
