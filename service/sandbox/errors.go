package sandbox

import "fmt"

// RejectedQueryError 语句未通过只读校验，未触达数据库
type RejectedQueryError struct {
	Reason  string
	Keyword string
}

func (e *RejectedQueryError) Error() string {
	if e.Keyword != "" {
		return fmt.Sprintf("blocked keyword detected: %s", e.Keyword)
	}
	return e.Reason
}

// ExecutionError 数据库执行失败或超时
type ExecutionError struct {
	Stage string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query %s failed: %v", e.Stage, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
