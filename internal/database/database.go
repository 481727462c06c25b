// Package database 提供数据库连接和管理
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yipai/yipai/internal/config"
	"github.com/yipai/yipai/pkg/logger"

	_ "github.com/lib/pq" // PostgreSQL 驱动
)

// DB 数据库连接封装
type DB struct {
	*sql.DB
	cfg *config.DatabaseConfig
}

// New 创建新的数据库连接
func New(cfg *config.DatabaseConfig) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("打开数据库连接失败: %w", err)
	}

	// 配置连接池
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Msg("数据库连接成功")

	return &DB{DB: db, cfg: cfg}, nil
}

// Close 关闭数据库连接
func (db *DB) Close() error {
	if db.DB != nil {
		logger.Info().Msg("关闭数据库连接")
		return db.DB.Close()
	}
	return nil
}

// Health 健康检查
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Transaction 执行事务
func (db *DB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("事务回滚失败: %v (原始错误: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("事务提交失败: %w", err)
	}

	return nil
}

// Stats 返回数据库统计信息
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// Exec 执行SQL语句
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	result, err := db.DB.ExecContext(ctx, query, args...)
	duration := time.Since(start)

	if duration > 100*time.Millisecond {
		logger.Warn().
			Str("query", truncateQuery(query)).
			Dur("duration", duration).
			Msg("慢SQL查询")
	}

	return result, err
}

// QueryContext 执行查询
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := db.DB.QueryContext(ctx, query, args...)
	duration := time.Since(start)

	if duration > 100*time.Millisecond {
		logger.Warn().
			Str("query", truncateQuery(query)).
			Dur("duration", duration).
			Msg("慢SQL查询")
	}

	return rows, err
}

// QueryRowContext 执行单行查询
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.DB.QueryRowContext(ctx, query, args...)
}

// truncateQuery 截断长查询
func truncateQuery(query string) string {
	if len(query) > 200 {
		return query[:200] + "..."
	}
	return query
}

// 排班域的基础表结构，服务启动时幂等执行
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS departments (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		settings JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS staff (
		id UUID PRIMARY KEY,
		department_id UUID NOT NULL REFERENCES departments(id),
		name TEXT NOT NULL,
		code TEXT NOT NULL,
		email TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		roles JSONB NOT NULL DEFAULT '[]',
		skills JSONB NOT NULL DEFAULT '[]',
		max_weekly_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
		availability JSONB NOT NULL DEFAULT '[]',
		preference_ranks JSONB NOT NULL DEFAULT '{}',
		commute_minutes JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at TIMESTAMPTZ,
		UNIQUE (department_id, code)
	)`,
	`CREATE TABLE IF NOT EXISTS units (
		id UUID PRIMARY KEY,
		department_id UUID NOT NULL REFERENCES departments(id),
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		code TEXT,
		window_start TIMESTAMPTZ NOT NULL,
		window_end TIMESTAMPTZ NOT NULL,
		required_role TEXT,
		required_skill TEXT,
		headcount INT NOT NULL DEFAULT 1,
		location_id UUID,
		patient_id UUID,
		priority INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS assignments (
		id UUID PRIMARY KEY,
		department_id UUID NOT NULL REFERENCES departments(id),
		unit_id UUID NOT NULL REFERENCES units(id),
		seat INT NOT NULL,
		staff_id UUID REFERENCES staff(id),
		patient_id UUID,
		fixed BOOLEAN NOT NULL DEFAULT false,
		hope_rank INT NOT NULL DEFAULT 0,
		mismatch BOOLEAN NOT NULL DEFAULT false,
		status TEXT NOT NULL DEFAULT 'proposed',
		run_id UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (unit_id, seat, run_id)
	)`,
	`CREATE TABLE IF NOT EXISTS optimize_runs (
		id UUID PRIMARY KEY,
		department_id UUID NOT NULL,
		status TEXT NOT NULL,
		stop_reason TEXT NOT NULL,
		feasible BOOLEAN NOT NULL,
		fitness DOUBLE PRECISION NOT NULL,
		generations INT NOT NULL,
		duration_ms BIGINT NOT NULL,
		violations JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_staff_department ON staff(department_id)`,
	`CREATE INDEX IF NOT EXISTS idx_units_department_window ON units(department_id, window_start)`,
	`CREATE INDEX IF NOT EXISTS idx_assignments_run ON assignments(run_id)`,
}

// EnsureSchema 幂等创建排班域表结构
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("初始化表结构失败: %w", err)
		}
	}
	logger.Info().Int("statements", len(schemaStatements)).Msg("表结构初始化完成")
	return nil
}
