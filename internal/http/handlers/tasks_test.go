package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"karya/internal/domain"
	"karya/internal/service"
	"karya/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router *gin.Engine
	store  *testutil.FakeStore
	queue  *testutil.FakeQueue
	blobs  *testutil.FakeBlobs
}

// newFixture routes the handlers with the owner set directly, leaving
// authentication to the middleware tests.
func newFixture(owner string) *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{
		store: testutil.NewFakeStore(),
		queue: &testutil.FakeQueue{},
		blobs: testutil.NewFakeBlobs(),
	}
	svc := service.NewTaskService(service.Deps{Store: f.store, Queue: f.queue, Notifier: &testutil.FakeNotifier{}, Blobs: f.blobs}, service.Settings{})
	h := NewHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if owner != "" {
			c.Set("owner_id", owner)
		}
	})
	r.POST("/tasks", h.CreateTask)
	r.GET("/tasks", h.ListTasks)
	r.PUT("/tasks/:taskId", h.UpdateTask)
	r.DELETE("/tasks/:taskId", h.DeleteTask)
	r.POST("/tasks/:taskId/attachment", h.AttachFile)
	f.router = r
	return f
}

func (f *fixture) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCreateAndListTasks(t *testing.T) {
	f := newFixture("u1")

	w := f.do(http.MethodPost, "/tasks", `{"title":"Pay rent","due_date":"12/01/2025"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	created := jsonBody(t, w)
	assert.Equal(t, "Task created successfully", created["message"])
	require.Len(t, f.queue.Sent, 1)

	w = f.do(http.MethodGet, "/tasks", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Tasks []domain.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, created["task_id"], list.Tasks[0].TaskID)
	assert.Equal(t, "Pending", list.Tasks[0].Status)
}

func TestCreateTaskReminderPending(t *testing.T) {
	f := newFixture("u1")
	f.queue.SendErr = errors.New("queue down")

	w := f.do(http.MethodPost, "/tasks", `{"title":"Pay rent","due_date":"12/01/2025"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, jsonBody(t, w)["reminder_pending"])
}

func TestCreateTaskValidation(t *testing.T) {
	f := newFixture("u1")

	w := f.do(http.MethodPost, "/tasks", `{"title":"Pay rent","due_date":"someday"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Failed to create task", jsonBody(t, w)["message"])

	w = f.do(http.MethodPost, "/tasks", `{`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnauthenticated(t *testing.T) {
	f := newFixture("")
	w := f.do(http.MethodGet, "/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateTask(t *testing.T) {
	f := newFixture("u1")
	f.store.Seed(domain.Task{OwnerID: "u1", TaskID: "t1", Title: "a", DueDate: "12/01/2025", Status: "Pending"})

	w := f.do(http.MethodPut, "/tasks/t1", `{"status":"Done"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stored, _ := f.store.Get("u1", "t1")
	assert.Equal(t, "Done", stored.Status)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPut, "/tasks/nope", `{"status":"Done"}`, nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, "/tasks/t1", `{"owner_id":"u2"}`, nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, "/tasks/t1", ``, nil).Code)

	f.store.UpdateErr = errors.New("throttled")
	w = f.do(http.MethodPut, "/tasks/t1", `{"status":"Done"}`, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Failed to update task", jsonBody(t, w)["message"])
}

func TestOversizedBodiesAreRejected(t *testing.T) {
	f := newFixture("u1")
	f.store.Seed(domain.Task{OwnerID: "u1", TaskID: "t1", Title: "a", DueDate: "12/01/2025", Status: "Pending"})
	huge := `{"description":"` + strings.Repeat("x", maxTaskBody) + `"}`

	w := f.do(http.MethodPut, "/tasks/t1", huge, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Failed to update task", jsonBody(t, w)["message"])
	stored, _ := f.store.Get("u1", "t1")
	assert.Equal(t, "", stored.Description)

	w = f.do(http.MethodPost, "/tasks", `{"title":"a","due_date":"12/01/2025","description":"`+strings.Repeat("x", maxTaskBody)+`"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.queue.Sent)
}

func TestDeleteTask(t *testing.T) {
	f := newFixture("u1")
	f.store.Seed(domain.Task{OwnerID: "u1", TaskID: "t1", Title: "a", DueDate: "12/01/2025"})

	assert.Equal(t, http.StatusOK, f.do(http.MethodDelete, "/tasks/t1", "", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodDelete, "/tasks/t1", "", nil).Code)
}

func TestAttachFile(t *testing.T) {
	f := newFixture("u1")
	f.store.Seed(domain.Task{OwnerID: "u1", TaskID: "t1", Title: "a", DueDate: "12/01/2025"})

	w := f.do(http.MethodPost, "/tasks/t1/attachment", "hello", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://test-bucket.s3.amazonaws.com/u1/t1/t1.bin", jsonBody(t, w)["AttachmentURL"])

	w = f.do(http.MethodPost, "/tasks/t1/attachment", "aGk=", map[string]string{
		"X-File-Name":               "note.txt",
		"Content-Transfer-Encoding": "base64",
		"Content-Type":              "text/plain",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []byte("hi"), f.blobs.Objects["u1/t1/note.txt"])
}
