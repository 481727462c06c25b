// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yipai/yipai/pkg/model"
)

// StaffRepository 人员仓储
type StaffRepository struct {
	db DB
}

// NewStaffRepository 创建人员仓储
func NewStaffRepository(db DB) *StaffRepository {
	return &StaffRepository{db: db}
}

const staffColumns = `id, department_id, name, code, email, status, roles, skills,
	max_weekly_hours, availability, preference_ranks, commute_minutes, created_at, updated_at`

// Create 创建人员
func (r *StaffRepository) Create(ctx context.Context, s *model.Staff) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	rolesJSON, _ := json.Marshal(s.Roles)
	skillsJSON, _ := json.Marshal(s.Skills)
	availJSON, _ := json.Marshal(s.Availability)
	prefsJSON, _ := json.Marshal(s.PreferenceRanks)
	commuteJSON, _ := json.Marshal(s.CommuteMinutes)

	query := `
		INSERT INTO staff (
			id, department_id, name, code, email, status, roles, skills,
			max_weekly_hours, availability, preference_ranks, commute_minutes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.DepartmentID, s.Name, s.Code, s.Email, s.Status, rolesJSON, skillsJSON,
		s.MaxWeeklyHours, availJSON, prefsJSON, commuteJSON, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建人员失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取人员
func (r *StaffRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff WHERE id = $1 AND deleted_at IS NULL`, staffColumns)
	return r.scanStaff(r.db.QueryRowContext(ctx, query, id))
}

// GetByCode 根据科室和工号获取人员
func (r *StaffRepository) GetByCode(ctx context.Context, departmentID uuid.UUID, code string) (*model.Staff, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff WHERE department_id = $1 AND code = $2 AND deleted_at IS NULL`, staffColumns)
	return r.scanStaff(r.db.QueryRowContext(ctx, query, departmentID, code))
}

// Update 更新人员
func (r *StaffRepository) Update(ctx context.Context, s *model.Staff) error {
	s.UpdatedAt = time.Now()

	rolesJSON, _ := json.Marshal(s.Roles)
	skillsJSON, _ := json.Marshal(s.Skills)
	availJSON, _ := json.Marshal(s.Availability)
	prefsJSON, _ := json.Marshal(s.PreferenceRanks)
	commuteJSON, _ := json.Marshal(s.CommuteMinutes)

	query := `
		UPDATE staff SET
			name = $2, code = $3, email = $4, status = $5, roles = $6, skills = $7,
			max_weekly_hours = $8, availability = $9, preference_ranks = $10,
			commute_minutes = $11, updated_at = $12
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		s.ID, s.Name, s.Code, s.Email, s.Status, rolesJSON, skillsJSON,
		s.MaxWeeklyHours, availJSON, prefsJSON, commuteJSON, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新人员失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("人员不存在")
	}

	return nil
}

// Delete 软删除人员
func (r *StaffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE staff SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除人员失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("人员不存在")
	}

	return nil
}

// List 查询人员列表
func (r *StaffRepository) List(ctx context.Context, filter ListFilter) ([]*model.Staff, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.DepartmentID != nil {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", argIndex))
		args = append(args, *filter.DepartmentID)
		argIndex++
	}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d OR email ILIKE $%d)", argIndex, argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	// 角色过滤
	if role, ok := filter.Extra["role"].(string); ok && role != "" {
		conditions = append(conditions, fmt.Sprintf("roles @> $%d", argIndex))
		roleJSON, _ := json.Marshal([]string{role})
		args = append(args, roleJSON)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM staff WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "desc"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM staff
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, staffColumns, whereClause, orderBy, orderDir, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var staff []*model.Staff
	for rows.Next() {
		s, err := r.scanStaffRow(rows)
		if err != nil {
			return nil, 0, err
		}
		staff = append(staff, s)
	}

	return staff, total, nil
}

// ListActive 获取科室下所有在职人员
// 优化请求的人员快照由此装配
func (r *StaffRepository) ListActive(ctx context.Context, departmentID uuid.UUID) ([]*model.Staff, error) {
	filter := DefaultListFilter().WithDepartmentID(departmentID).WithStatus("active").WithLimit(10000)
	staff, _, err := r.List(ctx, filter)
	return staff, err
}

// scanStaff 扫描单行人员数据
func (r *StaffRepository) scanStaff(row *sql.Row) (*model.Staff, error) {
	s := &model.Staff{}
	var rolesJSON, skillsJSON, availJSON, prefsJSON, commuteJSON []byte

	err := row.Scan(
		&s.ID, &s.DepartmentID, &s.Name, &s.Code, &s.Email, &s.Status, &rolesJSON, &skillsJSON,
		&s.MaxWeeklyHours, &availJSON, &prefsJSON, &commuteJSON, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描人员数据失败: %w", err)
	}

	json.Unmarshal(rolesJSON, &s.Roles)
	json.Unmarshal(skillsJSON, &s.Skills)
	json.Unmarshal(availJSON, &s.Availability)
	json.Unmarshal(prefsJSON, &s.PreferenceRanks)
	json.Unmarshal(commuteJSON, &s.CommuteMinutes)

	return s, nil
}

// scanStaffRow 扫描Rows中的人员数据
func (r *StaffRepository) scanStaffRow(rows *sql.Rows) (*model.Staff, error) {
	s := &model.Staff{}
	var rolesJSON, skillsJSON, availJSON, prefsJSON, commuteJSON []byte

	err := rows.Scan(
		&s.ID, &s.DepartmentID, &s.Name, &s.Code, &s.Email, &s.Status, &rolesJSON, &skillsJSON,
		&s.MaxWeeklyHours, &availJSON, &prefsJSON, &commuteJSON, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描人员数据失败: %w", err)
	}

	json.Unmarshal(rolesJSON, &s.Roles)
	json.Unmarshal(skillsJSON, &s.Skills)
	json.Unmarshal(availJSON, &s.Availability)
	json.Unmarshal(prefsJSON, &s.PreferenceRanks)
	json.Unmarshal(commuteJSON, &s.CommuteMinutes)

	return s, nil
}
