// Command ws_smoke checks a running server end to end: it subscribes to the
// reminder feed, creates a task due today and waits for its reminder.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"karya/internal/config"
	"karya/internal/logger"
	"karya/internal/service"
	"karya/internal/ws"

	"github.com/gorilla/websocket"
)

func main() {
	cfg := config.Load(config.KeyJWTSecret)
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	base := os.Getenv("SMOKE_BASE_URL")
	if base == "" {
		base = "localhost:" + cfg.AppPort
	}

	tokens, err := service.NewTokenManager(cfg.JWTSecret, time.Hour)
	if err != nil {
		logger.Fatal("token manager", "error", err)
	}
	owner := fmt.Sprintf("smoke-%d", time.Now().Unix())
	token, err := tokens.Generate(owner)
	if err != nil {
		logger.Fatal("generate token", "error", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+base+"/ws?token="+token, nil)
	if err != nil {
		logger.Fatal("dial ws", "error", err)
	}
	defer conn.Close()

	body, _ := json.Marshal(map[string]string{
		"title":    "smoke test",
		"due_date": time.Now().UTC().Format("01/02/2006"),
	})
	req, _ := http.NewRequest(http.MethodPost, "http://"+base+"/api/v1/tasks", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.Fatal("create task", "error", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		logger.Fatal("unexpected create status", "status", res.StatusCode)
	}
	logger.Info("task created, waiting for reminder", "owner_id", owner)

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Fatal("no reminder received", "error", err)
		}
		var env ws.Envelope
		if json.Unmarshal(msg, &env) == nil && env.Type == ws.MsgReminder {
			fmt.Println(string(msg))
			return
		}
	}
}
