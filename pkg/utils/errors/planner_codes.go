package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Trip planner errors.
var (
	ErrPlanFailed = Register(New(MakeCode(ServicePlanner, CategoryInternal, 1),
		http.StatusInternalServerError, codes.Internal, "Trip planning failed", "行程规划失败"))
	ErrPlanTimeout = Register(New(MakeCode(ServicePlanner, CategoryTimeout, 1),
		http.StatusGatewayTimeout, codes.DeadlineExceeded, "Trip planning timed out", "行程规划超时"))
	ErrJobNotFound = Register(New(MakeCode(ServicePlanner, CategoryResource, 1),
		http.StatusNotFound, codes.NotFound, "Planning job not found", "规划任务不存在"))
	ErrJobQueueFull = Register(New(MakeCode(ServicePlanner, CategoryRateLimit, 1),
		http.StatusTooManyRequests, codes.ResourceExhausted, "Planning queue is full", "规划任务队列已满"))
	ErrJobStore = Register(New(MakeCode(ServicePlanner, CategoryDatabase, 1),
		http.StatusInternalServerError, codes.Internal, "Planning job store failure", "规划任务存储失败"))
)

