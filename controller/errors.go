package controller

import "errors"

var (
	ErrParseRequest = errors.New("failed to parse request")

	ErrSessionIDRequired    = errors.New("id required")
	ErrSessionMessagesArray = errors.New("id and messages[] required")
	ErrSessionTitleRequired = errors.New("id and title required")
	ErrSessionNotFound      = errors.New("session not found")

	ErrGetSessions        = errors.New("failed to get assistant sessions")
	ErrGetSession         = errors.New("failed to get assistant session")
	ErrUpsertSession      = errors.New("failed to save assistant session")
	ErrRenameSession      = errors.New("failed to rename assistant session")
	ErrDeleteSession      = errors.New("failed to delete assistant session")
	ErrEmptyConversation  = errors.New("messages must not be empty")
	ErrModelsUnavailable  = errors.New("All models unavailable")
	ErrCallAssistant      = errors.New("error while calling assistant")
	ErrReportQuery        = errors.New("DB error")
	ErrWarehouseUnhealthy = errors.New("warehouse unreachable")
)
