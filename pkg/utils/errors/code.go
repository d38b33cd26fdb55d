package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Service codes (AA).
const (
	ServiceCommon  = 0
	ServicePlanner = 21
)

// Category codes (BB).
const (
	CategorySuccess    = 0
	CategoryRequest    = 1
	CategoryAuth       = 2
	CategoryPermission = 3
	CategoryResource   = 4
	CategoryConflict   = 5
	CategoryRateLimit  = 6
	CategoryInternal   = 7
	CategoryDatabase   = 8
	CategoryCache      = 9
	CategoryNetwork    = 10
	CategoryTimeout    = 11
	CategoryConfig     = 12
)

// MakeCode builds an AABBCCC code.
func MakeCode(service, category, sequence int) int {
	return service*100000 + category*1000 + sequence
}

// GetService extracts AA from a code.
func GetService(code int) int {
	return code / 100000
}

// GetCategory extracts BB from a code.
func GetCategory(code int) int {
	return (code / 1000) % 100
}

// Common errors shared by every handler.
var (
	OK = Register(New(0, http.StatusOK, codes.OK, "success", "成功"))

	ErrInvalidParam = Register(New(MakeCode(ServiceCommon, CategoryRequest, 1),
		http.StatusBadRequest, codes.InvalidArgument, "Invalid parameter", "参数错误"))
	ErrRouteNotFound = Register(New(MakeCode(ServiceCommon, CategoryResource, 1),
		http.StatusNotFound, codes.NotFound, "Route not found", "路由不存在"))
	ErrNotFound = Register(New(MakeCode(ServiceCommon, CategoryResource, 2),
		http.StatusNotFound, codes.NotFound, "Resource not found", "资源不存在"))
	ErrInternal = Register(New(MakeCode(ServiceCommon, CategoryInternal, 1),
		http.StatusInternalServerError, codes.Internal, "Internal server error", "服务器内部错误"))
	ErrPanic = Register(New(MakeCode(ServiceCommon, CategoryInternal, 2),
		http.StatusInternalServerError, codes.Internal, "Internal panic", "服务内部异常"))
	ErrRequestTimeout = Register(New(MakeCode(ServiceCommon, CategoryTimeout, 1),
		http.StatusRequestTimeout, codes.DeadlineExceeded, "Request timeout", "请求超时"))
	ErrCache = Register(New(MakeCode(ServiceCommon, CategoryCache, 1),
		http.StatusInternalServerError, codes.Internal, "Cache error", "缓存错误"))
	ErrDatabase = Register(New(MakeCode(ServiceCommon, CategoryDatabase, 1),
		http.StatusInternalServerError, codes.Internal, "Database error", "数据库错误"))
)
