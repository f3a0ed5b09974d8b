package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/garyjia/firm-portal/internal/domain/entity"
)

// Directory is the staff list with its reference data
type Directory struct {
	Staff         []entity.StaffMember  `json:"staff"`
	Departments   []entity.Department   `json:"departments"`
	Teams         []entity.Team         `json:"teams"`
	PracticeAreas []entity.PracticeArea `json:"practiceAreas"`
	// Missing names the reference lists that failed to load
	Missing []string `json:"missing,omitempty"`
}

// DirectoryService loads the staff directory page
type DirectoryService interface {
	Load(ctx context.Context) (*Directory, error)
}

type directoryServiceImpl struct {
	staff  StaffService
	logger Logger
}

// NewDirectoryService creates a new DirectoryService
func NewDirectoryService(staff StaffService, logger Logger) DirectoryService {
	return &directoryServiceImpl{staff: staff, logger: logger}
}

// Load fetches staff and reference data in parallel. Staff is required; a failed
// reference list is logged and left empty.
func (s *directoryServiceImpl) Load(ctx context.Context) (*Directory, error) {
	dir := &Directory{}
	failed := make([]bool, 3)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		staff, err := s.staff.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to load staff: %w", err)
		}
		dir.Staff = staff
		return nil
	})

	g.Go(func() error {
		departments, err := s.staff.Departments(gctx)
		if err != nil {
			s.logger.Error("Failed to load departments", "error", err)
			failed[0] = true
			return nil
		}
		dir.Departments = departments
		return nil
	})

	g.Go(func() error {
		teams, err := s.staff.Teams(gctx)
		if err != nil {
			s.logger.Error("Failed to load teams", "error", err)
			failed[1] = true
			return nil
		}
		dir.Teams = teams
		return nil
	})

	g.Go(func() error {
		areas, err := s.staff.PracticeAreas(gctx)
		if err != nil {
			s.logger.Error("Failed to load practice areas", "error", err)
			failed[2] = true
			return nil
		}
		dir.PracticeAreas = areas
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, name := range []string{"departments", "teams", "practiceAreas"} {
		if failed[i] {
			dir.Missing = append(dir.Missing, name)
		}
	}
	dir.Staff = nonNil(dir.Staff)
	dir.Departments = nonNil(dir.Departments)
	dir.Teams = nonNil(dir.Teams)
	dir.PracticeAreas = nonNil(dir.PracticeAreas)
	return dir, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
