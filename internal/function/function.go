// Package function adapts the task service to Lambda events: API Gateway
// proxy requests for the task routes, a scheduled event for the scanner and
// SQS batches for the reminder sender.
package function

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"karya/internal/api"
	"karya/internal/logger"
	"karya/internal/service"

	"github.com/aws/aws-lambda-go/events"
)

// Function names, selected by the FUNCTION environment variable.
const (
	CreateTask   = "create_task"
	GetTasks     = "get_tasks"
	UpdateTask   = "update_task"
	DeleteTask   = "delete_task"
	AttachFile   = "attach_file"
	TaskScanner  = "task_scanner"
	SendReminder = "send_reminder"
)

// Names lists every function in deployment order.
var Names = []string{CreateTask, GetTasks, UpdateTask, DeleteTask, AttachFile, TaskScanner, SendReminder}

type Handlers struct {
	Tasks *service.TaskService
}

func New(tasks *service.TaskService) *Handlers {
	return &Handlers{Tasks: tasks}
}

// Handler returns the lambda.Start compatible handler for name.
func (h *Handlers) Handler(name string) (any, error) {
	switch name {
	case CreateTask:
		return h.CreateTask, nil
	case GetTasks:
		return h.GetTasks, nil
	case UpdateTask:
		return h.UpdateTask, nil
	case DeleteTask:
		return h.DeleteTask, nil
	case AttachFile:
		return h.AttachFile, nil
	case TaskScanner:
		return h.TaskScanner, nil
	case SendReminder:
		return h.SendReminder, nil
	default:
		return nil, fmt.Errorf("unknown function %q", name)
	}
}

type Response = events.APIGatewayProxyResponse

func respond(status int, body any) (Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return Response{}, err
	}
	return Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(raw),
	}, nil
}

func fail(ctx context.Context, message string, err error) (Response, error) {
	status := api.Status(err)
	log := logger.WithContext(ctx)
	if status >= http.StatusInternalServerError {
		log.Error(message, "error", err)
	} else {
		log.Warn(message, "error", err)
	}
	return respond(status, api.NewErrorBody(message, err))
}

// principal is the owner id the authorizer attached to the request.
func principal(req events.APIGatewayProxyRequest) string {
	if req.RequestContext.Authorizer == nil {
		return ""
	}
	id, _ := req.RequestContext.Authorizer["principalId"].(string)
	return id
}

// header looks a header up case-insensitively; the gateway forwards them as
// the client sent them.
func header(req events.APIGatewayProxyRequest, name string) string {
	if v, ok := req.Headers[name]; ok {
		return v
	}
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// body returns the request body, decoding it when the gateway marked it
// base64.
func body(req events.APIGatewayProxyRequest) ([]byte, error) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}
	return base64.StdEncoding.DecodeString(req.Body)
}

// scoped returns ctx carrying a logger tagged with the request identifiers.
func scoped(ctx context.Context, req events.APIGatewayProxyRequest, owner string) context.Context {
	l := logger.With("request_id", req.RequestContext.RequestID, "owner_id", owner)
	if id := req.PathParameters["taskId"]; id != "" {
		l = l.With("task_id", id)
	}
	return logger.NewContext(ctx, l)
}
