package request

import "encoding/json"

type UpsertSessionRequest struct {
	ID        string          `json:"id"`
	Dashboard string          `json:"dashboard"`
	Messages  json.RawMessage `json:"messages"`
	Title     string          `json:"title"`
	UID       string          `json:"uid"`
}

type RenameSessionRequest struct {
	ID    string  `json:"id"`
	Title *string `json:"title"`
}

type DeleteSessionRequest struct {
	ID string `json:"id"`
}

type ListSessionsQuery struct {
	Dashboard string `form:"dashboard"`
	UID       string `form:"uid"`
}
