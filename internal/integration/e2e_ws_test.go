package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	httpserver "karya/internal/http"
	"karya/internal/service"
	"karya/internal/testutil"
	"karya/internal/ws"
)

// TestE2E_CreateTaskThenReminderOverWS creates a task over HTTP, drains the
// queued reminder through the sender and expects it on the owner's socket.
func TestE2E_CreateTaskThenReminderOverWS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	queue := &testutil.FakeQueue{}
	hub := ws.NewHub()
	tasks := service.NewTaskService(service.Deps{
		Store:    testutil.NewFakeStore(),
		Queue:    queue,
		Notifier: hub,
		Blobs:    testutil.NewFakeBlobs(),
	}, service.Settings{})

	tokens, err := service.NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	token, _ := tokens.Generate("u1")

	r := gin.New()
	httpserver.RegisterRoutes(r, httpserver.Deps{
		Tasks:      tasks,
		Tokens:     tokens,
		Hub:        hub,
		RateLimit:  100,
		RateWindow: time.Minute,
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	expectFrame(t, conn, ws.MsgReady)
	deadline := time.Now().Add(2 * time.Second)
	for hub.Connections("u1") == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/tasks", bytes.NewBufferString(`{"title":"Pay rent","due_date":"12/01/2025"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 got %d", res.StatusCode)
	}
	if len(queue.Sent) != 1 {
		t.Fatalf("expected one queued reminder, got %d", len(queue.Sent))
	}

	body, _ := json.Marshal(queue.Sent[0])
	failed, err := tasks.SendReminders(context.Background(), []service.QueuedMessage{{ID: "m1", Body: body}})
	if err != nil || len(failed) != 0 {
		t.Fatalf("send reminders: failed=%v err=%v", failed, err)
	}

	frame := expectFrame(t, conn, ws.MsgReminder)
	if !strings.Contains(string(frame), "Pay rent") {
		t.Fatalf("reminder frame missing title: %s", frame)
	}
}

func TestE2E_WSRejectsBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens, _ := service.NewTokenManager("test-secret", time.Hour)

	r := gin.New()
	httpserver.RegisterRoutes(r, httpserver.Deps{Tokens: tokens, Hub: ws.NewHub(), RateLimit: 10, RateWindow: time.Minute})
	srv := httptest.NewServer(r)
	defer srv.Close()

	_, res, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?token=nope", nil)
	if err == nil {
		t.Fatalf("expected dial to fail")
	}
	if res == nil || res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", res)
	}
}

func expectFrame(t *testing.T, conn *websocket.Conn, typ string) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read %s frame: %v", typ, err)
	}
	var env ws.Envelope
	if err := json.Unmarshal(msg, &env); err != nil || env.Type != typ {
		t.Fatalf("expected %s frame, got %s", typ, msg)
	}
	return msg
}
