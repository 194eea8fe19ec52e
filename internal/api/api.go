// Package api holds what the HTTP server and the API Gateway functions share:
// response messages, request decoding and the error to status mapping.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"karya/internal/domain"
)

const (
	MsgTaskCreated     = "Task created successfully"
	MsgTaskUpdated     = "Task updated successfully"
	MsgTaskDeleted     = "Task deleted successfully"
	MsgFileAttached    = "File uploaded and task updated successfully"
	MsgRemindersSent   = "Reminders processed successfully"
	MsgCreateFailed    = "Failed to create task"
	MsgListFailed      = "Failed to get tasks"
	MsgUpdateFailed    = "Failed to update task"
	MsgDeleteFailed    = "Failed to delete task"
	MsgAttachFailed    = "Failed to upload file"
	MsgUnauthorized    = "Unauthorized"
	MsgMissingTaskID   = "Missing task id"
	MsgMalformedBody   = "Malformed request body"
	HeaderFileName     = "X-File-Name"
	HeaderEncoding     = "Content-Transfer-Encoding"
	HeaderContentType  = "Content-Type"
	DefaultContentType = "application/octet-stream"
)

// Status maps an error to the HTTP status the caller sees.
func Status(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody is the {message, error} failure payload.
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func NewErrorBody(message string, err error) ErrorBody {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return ErrorBody{Message: message, Error: detail}
}

// CreateTaskRequest is the create task body.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
}

type CreateTaskResponse struct {
	Message         string `json:"message"`
	TaskID          string `json:"task_id"`
	ReminderPending bool   `json:"reminder_pending,omitempty"`
	ReminderLost    bool   `json:"reminder_lost,omitempty"`
}

type ListTasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type AttachFileResponse struct {
	Message       string `json:"message"`
	AttachmentURL string `json:"AttachmentURL"`
}

// DecodeCreate parses a create task body.
func DecodeCreate(body []byte) (CreateTaskRequest, error) {
	var req CreateTaskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return req, domain.Validation("create task", "malformed body: %v", err)
	}
	return req, nil
}

// DecodeFields parses a partial update body. Numbers stay json.Number so they
// are not silently turned into floats.
func DecodeFields(body []byte) (map[string]any, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, domain.Validation("update task", "missing body")
	}
	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, domain.Validation("update task", "malformed body: %v", err)
	}
	if fields == nil {
		return nil, domain.Validation("update task", "body must be a JSON object")
	}
	return fields, nil
}

// IsBase64 reports whether an attachment body is base64 encoded, either by
// the gateway flag or the transfer encoding header.
func IsBase64(flag bool, encoding string) bool {
	return flag || strings.EqualFold(strings.TrimSpace(encoding), "base64")
}

// ErrUnauthorized is returned when no principal is attached to a request.
var ErrUnauthorized = errors.New("missing principal")
