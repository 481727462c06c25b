// YiPai 医院排班优化引擎
// 主程序入口

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yipai/yipai/internal/config"
	"github.com/yipai/yipai/internal/database"
	"github.com/yipai/yipai/internal/department"
	"github.com/yipai/yipai/internal/handler"
	"github.com/yipai/yipai/internal/metrics"
	"github.com/yipai/yipai/internal/middleware"
	"github.com/yipai/yipai/internal/repository"
	"github.com/yipai/yipai/internal/security"
	"github.com/yipai/yipai/pkg/logger"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: logFormat(cfg),
	})

	fmt.Printf("YiPai 医院排班优化引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// 数据库是可选依赖：连不上就以无持久化模式运行
	var runs *repository.RunRepository
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("数据库不可用, 以无持久化模式启动")
	} else {
		defer db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := db.EnsureSchema(ctx); err != nil {
			logger.Warn().Err(err).Msg("初始化数据库结构失败, 以无持久化模式启动")
		} else {
			runs = repository.NewRunRepository(db)
		}
		cancel()
	}

	// 科室注册表与API密钥
	departments := department.NewRegistry()
	defaultDept := department.CreateDefaultDepartment()
	if err := departments.Register(defaultDept); err != nil {
		logger.Error().Err(err).Msg("注册默认科室失败")
		os.Exit(1)
	}

	keyManager := security.NewAPIKeyManager()
	if cfg.IsDevelopment() {
		key, err := keyManager.GenerateKey(defaultDept.Code, "dev", []string{"optimize", "stats", "outpatient"}, nil)
		if err == nil {
			logger.Info().Str("api_key", key.Key).Msg("开发环境API密钥")
		}
	}
	rateLimiter := security.NewRateLimiter(cfg.API.RateLimit, time.Minute)

	// 处理器
	optimizeHandler := handler.NewOptimizeHandler(&cfg.Optimizer, runs)
	outpatientHandler := handler.NewOutpatientHandler(&cfg.Outpatient)
	statsHandler := handler.NewStatsHandler()
	libraryHandler := handler.NewLibraryHandler()
	swapHandler := handler.NewSwapHandler()

	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := "ok"
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Health(ctx); err != nil {
				status = "degraded"
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"%s","service":"yipai"}`, status)
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "YiPai 医院排班优化引擎 API v1",
			"endpoints": {
				"assignment": {
					"optimize": "POST /api/v1/assignment/optimize",
					"validate": "POST /api/v1/assignment/validate",
					"swap": "POST /api/v1/assignment/swap"
				},
				"outpatient": {
					"plan": "POST /api/v1/outpatient/plan",
					"batch": "POST /api/v1/outpatient/batch"
				},
				"stats": {
					"fairness": "POST /api/v1/stats/fairness",
					"coverage": "POST /api/v1/stats/coverage"
				},
				"constraints": {
					"library": "GET /api/v1/constraints/library"
				},
				"roster": {
					"departments": "GET|POST /api/v1/roster/departments",
					"staff": "GET|POST /api/v1/roster/staff",
					"units": "GET|POST /api/v1/roster/units"
				}
			}
		}`))
	})

	// 批量排班优化
	mux.HandleFunc("/api/v1/assignment/optimize", optimizeHandler.Optimize)
	mux.HandleFunc("/api/v1/assignment/validate", optimizeHandler.Validate)
	mux.HandleFunc("/api/v1/assignment/swap", swapHandler.Swap)

	// 门诊时段指派
	mux.HandleFunc("/api/v1/outpatient/plan", outpatientHandler.PlanSlot)
	mux.HandleFunc("/api/v1/outpatient/batch", outpatientHandler.BatchPlan)

	// 统计分析
	mux.HandleFunc("/api/v1/stats/fairness", statsHandler.Fairness)
	mux.HandleFunc("/api/v1/stats/coverage", statsHandler.Coverage)

	// 约束库
	mux.HandleFunc("/api/v1/constraints/library", libraryHandler.List)

	// 名册主数据（需要数据库）
	if runs != nil {
		roster := handler.NewRosterHandler(db)
		mux.HandleFunc("/api/v1/roster/departments", roster.Departments)
		mux.HandleFunc("/api/v1/roster/staff", roster.Staff)
		mux.HandleFunc("/api/v1/roster/units", roster.Units)
	}

	// ========================================
	// 监控端点
	// ========================================

	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// ========================================
	// 中间件链
	// ========================================

	authConfig := &middleware.AuthConfig{
		APIKeyManager:   keyManager,
		Departments:     departments,
		RateLimiter:     rateLimiter,
		SkipPaths:       []string{"/health", "/version", "/metrics"},
		EnableRateLimit: !cfg.IsDevelopment(),
	}

	var root http.Handler = mux
	if cfg.IsProduction() {
		root = middleware.AuthMiddleware(authConfig)(root)
	}
	root = middleware.LoggingMiddleware(root)
	root = middleware.SecurityHeadersMiddleware(root)
	root = middleware.RequestIDMiddleware(root)
	root = middleware.RecoveryMiddleware(root)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.API.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("env", cfg.App.Env).
			Str("version", Version).
			Bool("persistence", runs != nil).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}

// logFormat 开发环境用易读的控制台格式, 生产环境用JSON
func logFormat(cfg *config.Config) string {
	if cfg.IsDevelopment() {
		return "console"
	}
	return "json"
}
