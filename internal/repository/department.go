// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yipai/yipai/pkg/model"
)

// DepartmentRepository 科室仓储
type DepartmentRepository struct {
	db DB
}

// NewDepartmentRepository 创建科室仓储
func NewDepartmentRepository(db DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// Create 创建科室
func (r *DepartmentRepository) Create(ctx context.Context, dept *model.Department) error {
	if dept.ID == uuid.Nil {
		dept.ID = uuid.New()
	}
	now := time.Now()
	dept.CreatedAt = now
	dept.UpdatedAt = now

	settingsJSON, err := json.Marshal(dept.Settings)
	if err != nil {
		return fmt.Errorf("序列化settings失败: %w", err)
	}

	query := `
		INSERT INTO departments (id, name, code, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.db.ExecContext(ctx, query,
		dept.ID, dept.Name, dept.Code, settingsJSON, dept.CreatedAt, dept.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建科室失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取科室
func (r *DepartmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	query := `
		SELECT id, name, code, settings, created_at, updated_at
		FROM departments
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.scanDepartment(r.db.QueryRowContext(ctx, query, id))
}

// GetByCode 根据Code获取科室
func (r *DepartmentRepository) GetByCode(ctx context.Context, code string) (*model.Department, error) {
	query := `
		SELECT id, name, code, settings, created_at, updated_at
		FROM departments
		WHERE code = $1 AND deleted_at IS NULL
	`
	return r.scanDepartment(r.db.QueryRowContext(ctx, query, code))
}

// Update 更新科室
func (r *DepartmentRepository) Update(ctx context.Context, dept *model.Department) error {
	dept.UpdatedAt = time.Now()

	settingsJSON, err := json.Marshal(dept.Settings)
	if err != nil {
		return fmt.Errorf("序列化settings失败: %w", err)
	}

	query := `
		UPDATE departments SET name = $2, code = $3, settings = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		dept.ID, dept.Name, dept.Code, settingsJSON, dept.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新科室失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("科室不存在")
	}

	return nil
}

// Delete 软删除科室
func (r *DepartmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE departments SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除科室失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("科室不存在")
	}

	return nil
}

// List 查询科室列表
func (r *DepartmentRepository) List(ctx context.Context, filter ListFilter) ([]*model.Department, int, error) {
	countQuery := `SELECT COUNT(*) FROM departments WHERE deleted_at IS NULL`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	query := `
		SELECT id, name, code, settings, created_at, updated_at
		FROM departments
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var departments []*model.Department
	for rows.Next() {
		dept := &model.Department{}
		var settingsJSON []byte
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.Code, &settingsJSON, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("扫描科室数据失败: %w", err)
		}
		if len(settingsJSON) > 0 {
			json.Unmarshal(settingsJSON, &dept.Settings)
		}
		departments = append(departments, dept)
	}

	return departments, total, nil
}

// scanDepartment 扫描单行科室数据
func (r *DepartmentRepository) scanDepartment(row *sql.Row) (*model.Department, error) {
	dept := &model.Department{}
	var settingsJSON []byte

	err := row.Scan(&dept.ID, &dept.Name, &dept.Code, &settingsJSON, &dept.CreatedAt, &dept.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询科室失败: %w", err)
	}

	if len(settingsJSON) > 0 {
		if err := json.Unmarshal(settingsJSON, &dept.Settings); err != nil {
			return nil, fmt.Errorf("解析settings失败: %w", err)
		}
	}

	return dept, nil
}
