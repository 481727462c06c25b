// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yipai/yipai/pkg/model"
)

// UnitRepository 排班单元仓储
type UnitRepository struct {
	db DB
}

// NewUnitRepository 创建排班单元仓储
func NewUnitRepository(db DB) *UnitRepository {
	return &UnitRepository{db: db}
}

const unitColumns = `id, department_id, kind, name, code, window_start, window_end,
	required_role, required_skill, headcount, location_id, patient_id, priority,
	created_at, updated_at`

// Create 创建排班单元
func (r *UnitRepository) Create(ctx context.Context, u *model.Unit) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := `
		INSERT INTO units (
			id, department_id, kind, name, code, window_start, window_end,
			required_role, required_skill, headcount, location_id, patient_id,
			priority, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.DepartmentID, u.Kind, u.Name, u.Code, u.Window.Start, u.Window.End,
		u.RequiredRole, u.RequiredSkill, u.Headcount, u.LocationID, u.PatientID,
		u.Priority, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建排班单元失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取排班单元
func (r *UnitRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Unit, error) {
	query := fmt.Sprintf(`SELECT %s FROM units WHERE id = $1 AND deleted_at IS NULL`, unitColumns)
	return r.scanUnit(r.db.QueryRowContext(ctx, query, id))
}

// Update 更新排班单元
func (r *UnitRepository) Update(ctx context.Context, u *model.Unit) error {
	u.UpdatedAt = time.Now()

	query := `
		UPDATE units SET
			kind = $2, name = $3, code = $4, window_start = $5, window_end = $6,
			required_role = $7, required_skill = $8, headcount = $9,
			location_id = $10, patient_id = $11, priority = $12, updated_at = $13
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		u.ID, u.Kind, u.Name, u.Code, u.Window.Start, u.Window.End,
		u.RequiredRole, u.RequiredSkill, u.Headcount,
		u.LocationID, u.PatientID, u.Priority, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新排班单元失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("排班单元不存在")
	}

	return nil
}

// Delete 软删除排班单元
func (r *UnitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE units SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除排班单元失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("排班单元不存在")
	}

	return nil
}

// List 查询排班单元列表
func (r *UnitRepository) List(ctx context.Context, filter ListFilter) ([]*model.Unit, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.DepartmentID != nil {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", argIndex))
		args = append(args, *filter.DepartmentID)
		argIndex++
	}

	if kind, ok := filter.Extra["kind"].(string); ok && kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argIndex))
		args = append(args, kind)
		argIndex++
	}

	if filter.StartTime != "" {
		conditions = append(conditions, fmt.Sprintf("window_start >= $%d", argIndex))
		args = append(args, filter.StartTime)
		argIndex++
	}
	if filter.EndTime != "" {
		conditions = append(conditions, fmt.Sprintf("window_end <= $%d", argIndex))
		args = append(args, filter.EndTime)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM units WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "window_start"
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "asc"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM units
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, unitColumns, whereClause, orderBy, orderDir, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var units []*model.Unit
	for rows.Next() {
		u, err := r.scanUnitRow(rows)
		if err != nil {
			return nil, 0, err
		}
		units = append(units, u)
	}

	return units, total, nil
}

// ListByWindow 获取科室在某时间范围内的全部排班单元
// 优化请求的单元快照由此装配
func (r *UnitRepository) ListByWindow(ctx context.Context, departmentID uuid.UUID, window model.TimeRange) ([]*model.Unit, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM units
		WHERE department_id = $1 AND window_start >= $2 AND window_end <= $3 AND deleted_at IS NULL
		ORDER BY window_start ASC, priority DESC
	`, unitColumns)

	rows, err := r.db.QueryContext(ctx, query, departmentID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("查询排班单元失败: %w", err)
	}
	defer rows.Close()

	var units []*model.Unit
	for rows.Next() {
		u, err := r.scanUnitRow(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}

	return units, nil
}

// scanUnit 扫描单行排班单元数据
func (r *UnitRepository) scanUnit(row *sql.Row) (*model.Unit, error) {
	u := &model.Unit{}
	err := row.Scan(
		&u.ID, &u.DepartmentID, &u.Kind, &u.Name, &u.Code, &u.Window.Start, &u.Window.End,
		&u.RequiredRole, &u.RequiredSkill, &u.Headcount, &u.LocationID, &u.PatientID,
		&u.Priority, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描排班单元数据失败: %w", err)
	}
	return u, nil
}

// scanUnitRow 扫描Rows中的排班单元数据
func (r *UnitRepository) scanUnitRow(rows *sql.Rows) (*model.Unit, error) {
	u := &model.Unit{}
	err := rows.Scan(
		&u.ID, &u.DepartmentID, &u.Kind, &u.Name, &u.Code, &u.Window.Start, &u.Window.End,
		&u.RequiredRole, &u.RequiredSkill, &u.Headcount, &u.LocationID, &u.PatientID,
		&u.Priority, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描排班单元数据失败: %w", err)
	}
	return u, nil
}
