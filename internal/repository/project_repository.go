package repository

import (
	"context"
	"database/sql"
	"fmt"

	"focusblock/internal/model"
)

type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO projects (id, user_id, department_id, code, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		project.ID,
		project.UserID,
		project.DepartmentID,
		project.Code,
		project.Name,
		formatTime(project.CreatedAt),
		formatTime(project.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) GetForUser(ctx context.Context, userID, id string) (*model.Project, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, department_id, code, name, created_at, updated_at
		 FROM projects
		 WHERE id = ? AND user_id = ?`,
		id,
		userID,
	)
	return scanProject(row)
}

func (r *ProjectRepository) ListForUser(ctx context.Context, userID string) ([]model.Project, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, department_id, code, name, created_at, updated_at
		 FROM projects
		 WHERE user_id = ?
		 ORDER BY code`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]model.Project, 0)
	for rows.Next() {
		project, scanErr := scanProject(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		projects = append(projects, *project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

func scanProject(s scanner) (*model.Project, error) {
	project := model.Project{}
	var createdAt, updatedAt string
	err := s.Scan(&project.ID, &project.UserID, &project.DepartmentID, &project.Code, &project.Name, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}

	if project.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse project created_at: %w", err)
	}
	if project.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse project updated_at: %w", err)
	}
	return &project, nil
}
