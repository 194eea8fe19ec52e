package handlers

import (
	"io"
	"net/http"

	"karya/internal/api"
	"karya/internal/domain"
	"karya/internal/service"

	"github.com/gin-gonic/gin"
)

// maxAttachment caps attachment bodies, matching the API Gateway payload limit.
const maxAttachment = 10 << 20

// maxTaskBody caps JSON bodies of create and update.
const maxTaskBody = 64 << 10

func (h *Handler) CreateTask(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxTaskBody)
	var req api.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, api.MsgCreateFailed, domain.Validation("create task", "malformed body: %v", err))
		return
	}

	res, err := h.Tasks.CreateTask(c.Request.Context(), owner, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		fail(c, api.MsgCreateFailed, err)
		return
	}

	c.JSON(http.StatusCreated, api.CreateTaskResponse{
		Message:         api.MsgTaskCreated,
		TaskID:          res.TaskID,
		ReminderPending: res.ReminderPending,
		ReminderLost:    res.ReminderLost,
	})
}

func (h *Handler) ListTasks(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	tasks, err := h.Tasks.ListTasks(c.Request.Context(), owner)
	if err != nil {
		fail(c, api.MsgListFailed, err)
		return
	}
	c.JSON(http.StatusOK, api.ListTasksResponse{Tasks: tasks})
}

func (h *Handler) UpdateTask(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxTaskBody))
	if err != nil {
		fail(c, api.MsgUpdateFailed, domain.Validation("update task", "body too large or unreadable"))
		return
	}
	fields, err := api.DecodeFields(raw)
	if err != nil {
		fail(c, api.MsgUpdateFailed, err)
		return
	}

	if err := h.Tasks.UpdateTask(c.Request.Context(), owner, c.Param("taskId"), fields); err != nil {
		fail(c, api.MsgUpdateFailed, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: api.MsgTaskUpdated})
}

func (h *Handler) DeleteTask(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	if err := h.Tasks.DeleteTask(c.Request.Context(), owner, c.Param("taskId")); err != nil {
		fail(c, api.MsgDeleteFailed, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: api.MsgTaskDeleted})
}

func (h *Handler) AttachFile(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxAttachment))
	if err != nil {
		fail(c, api.MsgAttachFailed, domain.Validation("attach file", "body too large or unreadable"))
		return
	}

	url, err := h.Tasks.AttachFile(c.Request.Context(), service.AttachFileInput{
		OwnerID:     owner,
		TaskID:      c.Param("taskId"),
		Body:        raw,
		Base64:      api.IsBase64(false, c.GetHeader(api.HeaderEncoding)),
		FileName:    c.GetHeader(api.HeaderFileName),
		ContentType: c.ContentType(),
	})
	if err != nil {
		fail(c, api.MsgAttachFailed, err)
		return
	}
	c.JSON(http.StatusOK, api.AttachFileResponse{Message: api.MsgFileAttached, AttachmentURL: url})
}
