package handler

import (
	"net/http"

	"github.com/yipai/yipai/internal/constraints"
	"github.com/yipai/yipai/pkg/errors"
)

// LibraryHandler 约束库查询处理器
type LibraryHandler struct{}

// NewLibraryHandler 创建约束库查询处理器
func NewLibraryHandler() *LibraryHandler {
	return &LibraryHandler{}
}

// List 返回内置约束的元信息目录
func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}
	respondJSON(w, http.StatusOK, constraints.LibraryResponse{Library: constraints.GetLibrary()})
}
