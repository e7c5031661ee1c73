package chat

import "context"

type ctxKey int

const (
	sessionIDKey ctxKey = iota
	modelKey
)

// WithSessionID 将会话 ID 带入本轮对话，工具执行记录会引用它
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

func withModel(ctx context.Context, m ModelDescriptor) context.Context {
	return context.WithValue(ctx, modelKey, m)
}

// ModelFromContext 当前正在尝试的模型
func ModelFromContext(ctx context.Context) (ModelDescriptor, bool) {
	m, ok := ctx.Value(modelKey).(ModelDescriptor)
	return m, ok
}
