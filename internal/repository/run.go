// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/yipai/yipai/pkg/model"
	"github.com/yipai/yipai/pkg/optimizer/ga"
)

// RunRepository 优化运行记录仓储
// 保存每次优化的终态摘要和生成的方案，供查询和审计
type RunRepository struct {
	db DB
}

// NewRunRepository 创建优化运行记录仓储
func NewRunRepository(db DB) *RunRepository {
	return &RunRepository{db: db}
}

// RunRecord 优化运行记录
type RunRecord struct {
	ID           uuid.UUID                    `json:"id"`
	DepartmentID uuid.UUID                    `json:"department_id"`
	Status       string                       `json:"status"`
	StopReason   string                       `json:"stop_reason"`
	Feasible     bool                         `json:"feasible"`
	Fitness      float64                      `json:"fitness"`
	Generations  int                          `json:"generations"`
	Duration     time.Duration                `json:"duration"`
	Violations   []map[string]interface{}     `json:"violations,omitempty"`
	CreatedAt    time.Time                    `json:"created_at"`
}

// SaveResult 持久化一次优化结果及其全部分配
func (r *RunRepository) SaveResult(ctx context.Context, departmentID uuid.UUID, res *ga.Result) error {
	violationsJSON, _ := json.Marshal(res.Violations)

	query := `
		INSERT INTO optimize_runs (
			id, department_id, status, stop_reason, feasible, fitness,
			generations, duration_ms, violations, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		res.RequestID, departmentID, string(res.Status), string(res.StopReason),
		res.Feasible, res.Fitness, res.Generations, res.Duration.Milliseconds(),
		violationsJSON, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("保存优化记录失败: %w", err)
	}

	for _, a := range res.Assignments {
		if err := r.saveAssignment(ctx, departmentID, res.RequestID, a); err != nil {
			return err
		}
	}

	return nil
}

func (r *RunRepository) saveAssignment(ctx context.Context, departmentID, runID uuid.UUID, a *model.Assignment) error {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	status := a.Status
	if status == "" {
		status = "proposed"
	}

	query := `
		INSERT INTO assignments (
			id, department_id, unit_id, seat, staff_id, patient_id,
			fixed, hope_rank, mismatch, status, run_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	now := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		id, departmentID, a.UnitID, a.Seat, a.StaffID, a.PatientID,
		a.Fixed, a.HopeRank, a.Mismatch, status, runID, now, now,
	)
	if err != nil {
		return fmt.Errorf("保存分配失败: %w", err)
	}
	return nil
}

// GetRun 获取优化运行记录
func (r *RunRepository) GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	query := `
		SELECT id, department_id, status, stop_reason, feasible, fitness,
			generations, duration_ms, violations, created_at
		FROM optimize_runs
		WHERE id = $1
	`

	rec := &RunRecord{}
	var violationsJSON []byte
	var durationMS int64

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.DepartmentID, &rec.Status, &rec.StopReason, &rec.Feasible,
		&rec.Fitness, &rec.Generations, &durationMS, &violationsJSON, &rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询优化记录失败: %w", err)
	}

	rec.Duration = time.Duration(durationMS) * time.Millisecond
	json.Unmarshal(violationsJSON, &rec.Violations)

	return rec, nil
}

// ListAssignments 获取某次优化生成的全部分配
func (r *RunRepository) ListAssignments(ctx context.Context, runID uuid.UUID) ([]*model.Assignment, error) {
	query := `
		SELECT id, department_id, unit_id, seat, staff_id, patient_id,
			fixed, hope_rank, mismatch, status, created_at, updated_at
		FROM assignments
		WHERE run_id = $1
		ORDER BY unit_id, seat
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("查询分配失败: %w", err)
	}
	defer rows.Close()

	var assignments []*model.Assignment
	for rows.Next() {
		a := &model.Assignment{}
		err := rows.Scan(
			&a.ID, &a.DepartmentID, &a.UnitID, &a.Seat, &a.StaffID, &a.PatientID,
			&a.Fixed, &a.HopeRank, &a.Mismatch, &a.Status, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("扫描分配数据失败: %w", err)
		}
		assignments = append(assignments, a)
	}

	return assignments, nil
}

// ListFixedAssignments 获取科室当前已确认的分配
// 这些分配在下一次优化中作为既定分配传入
func (r *RunRepository) ListFixedAssignments(ctx context.Context, departmentID uuid.UUID, unitIDs []uuid.UUID) ([]*model.Assignment, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, department_id, unit_id, seat, staff_id, patient_id,
			fixed, hope_rank, mismatch, status, created_at, updated_at
		FROM assignments
		WHERE department_id = $1 AND status = 'confirmed' AND unit_id = ANY($2)
		ORDER BY unit_id, seat
	`

	ids := make([]string, len(unitIDs))
	for i, id := range unitIDs {
		ids[i] = id.String()
	}

	rows, err := r.db.QueryContext(ctx, query, departmentID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("查询既定分配失败: %w", err)
	}
	defer rows.Close()

	var assignments []*model.Assignment
	for rows.Next() {
		a := &model.Assignment{}
		err := rows.Scan(
			&a.ID, &a.DepartmentID, &a.UnitID, &a.Seat, &a.StaffID, &a.PatientID,
			&a.Fixed, &a.HopeRank, &a.Mismatch, &a.Status, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("扫描分配数据失败: %w", err)
		}
		a.Fixed = true
		assignments = append(assignments, a)
	}

	return assignments, nil
}
