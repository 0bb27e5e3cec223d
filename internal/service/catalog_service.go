package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "focusblock/internal/errors"
	"focusblock/internal/model"
	"focusblock/internal/repository"
)

// CatalogService covers the department/project records sessions point at.
type CatalogService struct {
	departments *repository.DepartmentRepository
	projects    *repository.ProjectRepository
}

func NewCatalogService(
	departments *repository.DepartmentRepository,
	projects *repository.ProjectRepository,
) *CatalogService {
	return &CatalogService{departments: departments, projects: projects}
}

func (s *CatalogService) CreateDepartment(ctx context.Context, userID, name string) (*model.Department, *apperrors.APIError) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}

	now := time.Now().UTC()
	department := model.Department{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.departments.Create(ctx, &department); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, apperrors.Conflict("department name already exists", nil)
		}
		return nil, apperrors.Internal("failed to create department")
	}
	return &department, nil
}

func (s *CatalogService) ListDepartments(ctx context.Context, userID string) ([]model.Department, *apperrors.APIError) {
	departments, err := s.departments.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list departments")
	}
	return departments, nil
}

func (s *CatalogService) CreateProject(ctx context.Context, userID, departmentID, code, name string) (*model.Project, *apperrors.APIError) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return nil, apperrors.InvalidInput("code and name are required")
	}

	if _, err := s.departments.GetForUser(ctx, userID, departmentID); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.InvalidInput("unknown department")
		}
		return nil, apperrors.Internal("failed to read department")
	}

	now := time.Now().UTC()
	project := model.Project{
		ID:           uuid.NewString(),
		UserID:       userID,
		DepartmentID: departmentID,
		Code:         code,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.projects.Create(ctx, &project); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, apperrors.Conflict("project code already exists", nil)
		}
		return nil, apperrors.Internal("failed to create project")
	}
	return &project, nil
}

func (s *CatalogService) ListProjects(ctx context.Context, userID string) ([]model.Project, *apperrors.APIError) {
	projects, err := s.projects.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list projects")
	}
	return projects, nil
}
