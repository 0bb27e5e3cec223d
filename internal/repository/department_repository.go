package repository

import (
	"context"
	"database/sql"
	"fmt"

	"focusblock/internal/model"
)

type DepartmentRepository struct {
	db *sql.DB
}

func NewDepartmentRepository(db *sql.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) Create(ctx context.Context, department *model.Department) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO departments (id, user_id, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		department.ID,
		department.UserID,
		department.Name,
		formatTime(department.CreatedAt),
		formatTime(department.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

func (r *DepartmentRepository) GetForUser(ctx context.Context, userID, id string) (*model.Department, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, name, created_at, updated_at
		 FROM departments
		 WHERE id = ? AND user_id = ?`,
		id,
		userID,
	)
	return scanDepartment(row)
}

func (r *DepartmentRepository) ListForUser(ctx context.Context, userID string) ([]model.Department, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, name, created_at, updated_at
		 FROM departments
		 WHERE user_id = ?
		 ORDER BY name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	departments := make([]model.Department, 0)
	for rows.Next() {
		department, scanErr := scanDepartment(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		departments = append(departments, *department)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate departments: %w", err)
	}
	return departments, nil
}

func scanDepartment(s scanner) (*model.Department, error) {
	department := model.Department{}
	var createdAt, updatedAt string
	err := s.Scan(&department.ID, &department.UserID, &department.Name, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan department: %w", err)
	}

	if department.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse department created_at: %w", err)
	}
	if department.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse department updated_at: %w", err)
	}
	return &department, nil
}
