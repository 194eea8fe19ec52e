package service

import (
	"context"
	"encoding/base64"
	"path"
	"strings"

	"karya/internal/domain"
	"karya/internal/logger"
	"karya/internal/metrics"
	"karya/internal/update"
)

type AttachFileInput struct {
	OwnerID     string
	TaskID      string
	Body        []byte
	Base64      bool
	FileName    string
	ContentType string
}

// AttachmentKey is the object key of an attachment: <owner>/<task>/<file>.
func AttachmentKey(ownerID, taskID, fileName string) string {
	return ownerID + "/" + taskID + "/" + fileName
}

// AttachFile uploads the file and records its URL on the task. When the task
// update fails the uploaded object is deleted again.
func (s *TaskService) AttachFile(ctx context.Context, in AttachFileInput) (url string, err error) {
	const op = "attach file"
	defer func() { metrics.TaskOps.WithLabelValues("attach", metrics.Outcome(err)).Inc() }()

	if in.OwnerID == "" || in.TaskID == "" {
		return "", domain.Validation(op, "missing owner or task id")
	}

	body := in.Body
	if in.Base64 {
		decoded, derr := base64.StdEncoding.DecodeString(strings.TrimSpace(string(body)))
		if derr != nil {
			return "", domain.Validation(op, "body is not valid base64")
		}
		body = decoded
	}

	key := AttachmentKey(in.OwnerID, in.TaskID, fileName(in.FileName, in.TaskID))
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	log := logger.WithContext(ctx).With("owner_id", in.OwnerID, "task_id", in.TaskID, "key", key)

	url, err = s.blobs.Put(ctx, key, body, contentType)
	if err != nil {
		return "", domain.Dependency(op, err)
	}
	log.Info("attachment uploaded", "bytes", len(body))

	req, err := update.Build(map[string]any{domain.AttrAttachmentURL: url})
	if err != nil {
		return "", err
	}
	if uerr := s.store.Update(ctx, in.OwnerID, in.TaskID, req); uerr != nil {
		if derr := s.blobs.Delete(ctx, key); derr != nil {
			log.Error("failed to remove orphaned attachment", "error", derr)
		}
		return "", domain.Dependency(op, uerr)
	}

	log.Info("task updated with attachment", "url", url)
	return url, nil
}

// fileName keeps only the base name of the client supplied name so it cannot
// escape the task prefix, defaulting to <task_id>.bin.
func fileName(name, taskID string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name != "" {
		name = path.Base(name)
	}
	if name == "" || name == "." || name == "/" || name == ".." {
		return taskID + ".bin"
	}
	return name
}
