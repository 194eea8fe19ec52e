package function

import (
	"context"
	"net/http"

	"karya/internal/api"
	"karya/internal/domain"
	"karya/internal/service"

	"github.com/aws/aws-lambda-go/events"
)

func (h *Handlers) CreateTask(ctx context.Context, req events.APIGatewayProxyRequest) (Response, error) {
	owner := principal(req)
	ctx = scoped(ctx, req, owner)
	if owner == "" {
		return respond(http.StatusUnauthorized, api.NewErrorBody(api.MsgUnauthorized, api.ErrUnauthorized))
	}

	raw, err := body(req)
	if err != nil {
		return fail(ctx, api.MsgCreateFailed, domain.Validation("create task", "body is not valid base64"))
	}
	in, err := api.DecodeCreate(raw)
	if err != nil {
		return fail(ctx, api.MsgCreateFailed, err)
	}

	res, err := h.Tasks.CreateTask(ctx, owner, service.CreateTaskInput{
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
	})
	if err != nil {
		return fail(ctx, api.MsgCreateFailed, err)
	}
	return respond(http.StatusCreated, api.CreateTaskResponse{
		Message:         api.MsgTaskCreated,
		TaskID:          res.TaskID,
		ReminderPending: res.ReminderPending,
		ReminderLost:    res.ReminderLost,
	})
}

func (h *Handlers) GetTasks(ctx context.Context, req events.APIGatewayProxyRequest) (Response, error) {
	owner := principal(req)
	ctx = scoped(ctx, req, owner)
	if owner == "" {
		return respond(http.StatusUnauthorized, api.NewErrorBody(api.MsgUnauthorized, api.ErrUnauthorized))
	}

	tasks, err := h.Tasks.ListTasks(ctx, owner)
	if err != nil {
		return fail(ctx, api.MsgListFailed, err)
	}
	return respond(http.StatusOK, api.ListTasksResponse{Tasks: tasks})
}

func (h *Handlers) UpdateTask(ctx context.Context, req events.APIGatewayProxyRequest) (Response, error) {
	owner := principal(req)
	ctx = scoped(ctx, req, owner)
	if owner == "" {
		return respond(http.StatusUnauthorized, api.NewErrorBody(api.MsgUnauthorized, api.ErrUnauthorized))
	}
	taskID := req.PathParameters["taskId"]
	if taskID == "" {
		return fail(ctx, api.MsgUpdateFailed, domain.Validation("update task", "missing taskId path parameter"))
	}

	raw, err := body(req)
	if err != nil {
		return fail(ctx, api.MsgUpdateFailed, domain.Validation("update task", "body is not valid base64"))
	}
	fields, err := api.DecodeFields(raw)
	if err != nil {
		return fail(ctx, api.MsgUpdateFailed, err)
	}

	if err := h.Tasks.UpdateTask(ctx, owner, taskID, fields); err != nil {
		return fail(ctx, api.MsgUpdateFailed, err)
	}
	return respond(http.StatusOK, api.MessageResponse{Message: api.MsgTaskUpdated})
}

func (h *Handlers) DeleteTask(ctx context.Context, req events.APIGatewayProxyRequest) (Response, error) {
	owner := principal(req)
	ctx = scoped(ctx, req, owner)
	if owner == "" {
		return respond(http.StatusUnauthorized, api.NewErrorBody(api.MsgUnauthorized, api.ErrUnauthorized))
	}
	taskID := req.PathParameters["taskId"]
	if taskID == "" {
		return fail(ctx, api.MsgDeleteFailed, domain.Validation("delete task", "missing taskId path parameter"))
	}

	if err := h.Tasks.DeleteTask(ctx, owner, taskID); err != nil {
		return fail(ctx, api.MsgDeleteFailed, err)
	}
	return respond(http.StatusOK, api.MessageResponse{Message: api.MsgTaskDeleted})
}

// AttachFile stores the raw request body. The gateway's base64 flag and the
// transfer encoding header are both honoured.
func (h *Handlers) AttachFile(ctx context.Context, req events.APIGatewayProxyRequest) (Response, error) {
	owner := principal(req)
	ctx = scoped(ctx, req, owner)
	if owner == "" {
		return respond(http.StatusUnauthorized, api.NewErrorBody(api.MsgUnauthorized, api.ErrUnauthorized))
	}
	taskID := req.PathParameters["taskId"]
	if taskID == "" {
		return fail(ctx, api.MsgAttachFailed, domain.Validation("attach file", "missing taskId path parameter"))
	}

	url, err := h.Tasks.AttachFile(ctx, service.AttachFileInput{
		OwnerID:     owner,
		TaskID:      taskID,
		Body:        []byte(req.Body),
		Base64:      api.IsBase64(req.IsBase64Encoded, header(req, api.HeaderEncoding)),
		FileName:    header(req, api.HeaderFileName),
		ContentType: header(req, api.HeaderContentType),
	})
	if err != nil {
		return fail(ctx, api.MsgAttachFailed, err)
	}
	return respond(http.StatusOK, api.AttachFileResponse{Message: api.MsgFileAttached, AttachmentURL: url})
}
