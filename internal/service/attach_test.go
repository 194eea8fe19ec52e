package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"karya/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachFileDefaultName(t *testing.T) {
	f := newFixture(time.Now())
	f.store.Seed(domain.Task{OwnerID: "u1", TaskID: "t1", Title: "one", DueDate: "12/01/2025"})

	url, err := f.svc.AttachFile(context.Background(), AttachFileInput{OwnerID: "u1", TaskID: "t1", Body: []byte("hello")})
	require.NoError(t, err)
	assert.Equal(t, "https://test-bucket.s3.amazonaws.com/u1/t1/t1.bin", url)
	assert.Equal(t, []byte("hello"), f.blobs.Objects["u1/t1/t1.bin"])

	stored, _ := f.store.Get("u1", "t1")
	require.NotNil(t, stored.AttachmentURL)
	assert.Equal(t, url, *stored.AttachmentURL)
}

func TestAttachFileBase64AndName(t *testing.T) {
	f := newFixture(time.Now())
	f.store.Seed(domain.Task{OwnerID: "u1", TaskID: "t1", Title: "one", DueDate: "12/01/2025"})

	body := []byte(base64.StdEncoding.EncodeToString([]byte("%PDF-1.7")))
	_, err := f.svc.AttachFile(context.Background(), AttachFileInput{
		OwnerID: "u1", TaskID: "t1", Body: body, Base64: true, FileName: "../../other/receipt.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), f.blobs.Objects["u1/t1/receipt.pdf"])

	_, err = f.svc.AttachFile(context.Background(), AttachFileInput{OwnerID: "u1", TaskID: "t1", Body: []byte("!!"), Base64: true})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestAttachFileCompensatesFailedUpdate(t *testing.T) {
	f := newFixture(time.Now())

	_, err := f.svc.AttachFile(context.Background(), AttachFileInput{OwnerID: "u1", TaskID: "missing", Body: []byte("x")})
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
	assert.Empty(t, f.blobs.Objects)
	assert.Equal(t, []string{"u1/missing/missing.bin"}, f.blobs.Deleted)
}

func TestAttachFileUploadFailure(t *testing.T) {
	f := newFixture(time.Now())
	f.store.Seed(domain.Task{OwnerID: "u1", TaskID: "t1", Title: "one", DueDate: "12/01/2025"})
	f.blobs.PutErr = errors.New("denied")

	_, err := f.svc.AttachFile(context.Background(), AttachFileInput{OwnerID: "u1", TaskID: "t1", Body: []byte("x")})
	assert.True(t, errors.Is(err, domain.ErrDependency))
	assert.Empty(t, f.store.Updates)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "t1.bin", fileName("", "t1"))
	assert.Equal(t, "t1.bin", fileName("..", "t1"))
	assert.Equal(t, "t1.bin", fileName("/", "t1"))
	assert.Equal(t, "a.txt", fileName(`C:\docs\a.txt`, "t1"))
	assert.Equal(t, "a.txt", fileName("a.txt", "t1"))
}
