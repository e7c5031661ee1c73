package response

import (
	"encoding/json"
	"time"
)

type SessionResponse struct {
	ID        string          `json:"id"`
	Dashboard string          `json:"dashboard"`
	Title     string          `json:"title"`
	Messages  json.RawMessage `json:"messages"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type GetSessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

type GetSessionResponse struct {
	Session SessionResponse `json:"session"`
}
