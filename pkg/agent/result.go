package agent

import "fmt"

// Result 所有 agent 操作统一返回的结果信封
// 阶段边界之间不传递 error，每个阶段自行捕获内部失败并归一化到此结构。
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK 成功结果
func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail 失败结果
func Fail[T any](err error) Result[T] {
	return Result[T]{Success: false, Error: err.Error()}
}

// Failf 失败结果，携带格式化信息
func Failf[T any](format string, args ...any) Result[T] {
	return Result[T]{Success: false, Error: fmt.Sprintf(format, args...)}
}
