package response

type Response struct {
	Msg  string `json:"msg,omitempty"`
	Data any    `json:"data,omitempty"`
}

// ErrorResponse 对话接口在流开始之前失败时返回
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
