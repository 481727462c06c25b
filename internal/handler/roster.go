package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/yipai/yipai/internal/repository"
	"github.com/yipai/yipai/pkg/errors"
	"github.com/yipai/yipai/pkg/model"
)

// RosterHandler 名册管理处理器
// 维护科室、人员和排班单元的主数据，仅在数据库可用时挂载
type RosterHandler struct {
	staff       *repository.StaffRepository
	units       *repository.UnitRepository
	departments *repository.DepartmentRepository
}

// NewRosterHandler 创建名册管理处理器
func NewRosterHandler(db repository.DB) *RosterHandler {
	return &RosterHandler{
		staff:       repository.NewStaffRepository(db),
		units:       repository.NewUnitRepository(db),
		departments: repository.NewDepartmentRepository(db),
	}
}

// ListResponse 列表响应
type ListResponse struct {
	Success bool        `json:"success"`
	Total   int         `json:"total"`
	Data    interface{} `json:"data"`
}

// CreateResponse 创建响应
type CreateResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// Staff 人员名册：GET 列表 / POST 创建
func (h *RosterHandler) Staff(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filter, appErr := listFilterFromQuery(r)
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		items, total, err := h.staff.List(r.Context(), filter)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询人员失败"))
			return
		}
		respondJSON(w, http.StatusOK, ListResponse{Success: true, Total: total, Data: items})

	case http.MethodPost:
		var in StaffInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
			return
		}
		departmentID, appErr := departmentIDFromQuery(r)
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		if in.ID == "" {
			in.ID = uuid.New().String()
		}
		s, appErr := buildStaff(departmentID, in)
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		if err := h.staff.Create(r.Context(), s); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "创建人员失败"))
			return
		}
		respondJSON(w, http.StatusCreated, CreateResponse{Success: true, Data: s})

	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET/POST方法"))
	}
}

// Units 排班单元：GET 列表 / POST 创建
func (h *RosterHandler) Units(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filter, appErr := listFilterFromQuery(r)
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		items, total, err := h.units.List(r.Context(), filter)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询排班单元失败"))
			return
		}
		respondJSON(w, http.StatusOK, ListResponse{Success: true, Total: total, Data: items})

	case http.MethodPost:
		var in UnitInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
			return
		}
		departmentID, appErr := departmentIDFromQuery(r)
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		if in.ID == "" {
			in.ID = uuid.New().String()
		}
		u, appErr := buildUnit(departmentID, in)
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		if err := h.units.Create(r.Context(), u); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "创建排班单元失败"))
			return
		}
		respondJSON(w, http.StatusCreated, CreateResponse{Success: true, Data: u})

	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET/POST方法"))
	}
}

// DepartmentInput 科室输入
type DepartmentInput struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Departments 科室：GET 列表 / POST 创建
func (h *RosterHandler) Departments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filter, appErr := listFilterFromQuery(r)
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		items, total, err := h.departments.List(r.Context(), filter)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询科室失败"))
			return
		}
		respondJSON(w, http.StatusOK, ListResponse{Success: true, Total: total, Data: items})

	case http.MethodPost:
		var in DepartmentInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
			return
		}
		if in.Name == "" || in.Code == "" {
			respondError(w, errors.New(errors.CodeInvalidInput, "科室名称和编码不能为空"))
			return
		}
		dept := &model.Department{
			BaseModel: model.NewBaseModel(),
			Name:      in.Name,
			Code:      in.Code,
			Settings:  model.JSONMap{},
		}
		if err := h.departments.Create(r.Context(), dept); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "创建科室失败"))
			return
		}
		respondJSON(w, http.StatusCreated, CreateResponse{Success: true, Data: dept})

	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET/POST方法"))
	}
}

// listFilterFromQuery 从查询参数装配列表过滤器
func listFilterFromQuery(r *http.Request) (repository.ListFilter, *errors.AppError) {
	filter := repository.DefaultListFilter()
	q := r.URL.Query()

	if v := q.Get("department_id"); v != "" {
		id, appErr := parseUUID(v, "科室ID")
		if appErr != nil {
			return filter, appErr
		}
		filter = filter.WithDepartmentID(id)
	}
	if v := q.Get("status"); v != "" {
		filter = filter.WithStatus(v)
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return filter, errors.InvalidInput("limit", "必须是正整数")
		}
		filter = filter.WithLimit(limit)
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return filter, errors.InvalidInput("offset", "必须是非负整数")
		}
		filter = filter.WithOffset(offset)
	}
	if start, end := q.Get("start"), q.Get("end"); start != "" && end != "" {
		filter = filter.WithTimeRange(start, end)
	}

	return filter, nil
}

// departmentIDFromQuery 从查询参数取科室ID
func departmentIDFromQuery(r *http.Request) (uuid.UUID, *errors.AppError) {
	v := r.URL.Query().Get("department_id")
	if v == "" {
		return uuid.Nil, errors.New(errors.CodeInvalidInput, "科室ID不能为空")
	}
	return parseUUID(v, "科室ID")
}
