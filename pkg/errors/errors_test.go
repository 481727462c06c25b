package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		code Code
		want int
	}{
		{"输入无效", CodeInvalidInput, http.StatusBadRequest},
		{"验证失败", CodeValidationFail, http.StatusBadRequest},
		{"未授权", CodeUnauthorized, http.StatusUnauthorized},
		{"资源不存在", CodeNotFound, http.StatusNotFound},
		{"已存在", CodeAlreadyExists, http.StatusConflict},
		{"超时", CodeTimeout, http.StatusGatewayTimeout},
		{"编码不匹配走内部错误", CodeEncodingMismatch, http.StatusInternalServerError},
		{"未知码走内部错误", CodeUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.code, "x").HTTPStatus; got != tt.want {
				t.Errorf("HTTPStatus = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppError_WrapAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("连接被拒绝")
	err := Wrap(cause, CodeDatabaseError, "保存失败")

	if err.Unwrap() != cause {
		t.Error("Unwrap() 应返回底层错误")
	}
	if !Is(err, CodeDatabaseError) {
		t.Errorf("Is() 未识别错误码, got %v", GetCode(err))
	}
	if GetHTTPStatus(err) != http.StatusInternalServerError {
		t.Errorf("HTTP状态 = %d, want 500", GetHTTPStatus(err))
	}
}

func TestValidationErrors_Aggregate(t *testing.T) {
	ve := &ValidationErrors{}
	if ve.HasErrors() {
		t.Error("空集合不应报告有错误")
	}

	ve.Add("staff", "人员标识符重复")
	ve.Add("units", "需求人数为负数")

	if !ve.HasErrors() {
		t.Fatal("添加后应报告有错误")
	}

	appErr := ve.ToAppError()
	if appErr.Code != CodeValidationFail {
		t.Errorf("错误码 = %s, want %s", appErr.Code, CodeValidationFail)
	}
	if appErr.HTTPStatus != http.StatusBadRequest {
		t.Errorf("HTTP状态 = %d, want 400", appErr.HTTPStatus)
	}
	if len(appErr.Fields) != 2 {
		t.Errorf("字段数 = %d, want 2", len(appErr.Fields))
	}
	if appErr.Fields["staff"] != "人员标识符重复" {
		t.Errorf("staff 字段 = %v", appErr.Fields["staff"])
	}
}
