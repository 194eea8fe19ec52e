package domain

import (
	"encoding/json"
	"fmt"
)

// ReminderMessageVersion is the schema version written by this service.
const ReminderMessageVersion = 1

// Message sources.
const (
	SourceCreated = "created"
	SourceScan    = "scan"
	SourceSweep   = "sweep"
)

// ReminderSubject is the notification subject line.
const ReminderSubject = "Task Reminder"

// ReminderMessage is the canonical work queue payload.
type ReminderMessage struct {
	Version     int    `json:"version"`
	Source      string `json:"source"`
	OwnerID     string `json:"owner_id"`
	TaskID      string `json:"task_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status,omitempty"`
}

// NewReminderMessage builds the queue payload for t.
func NewReminderMessage(t Task, source string) ReminderMessage {
	return ReminderMessage{
		Version:     ReminderMessageVersion,
		Source:      source,
		OwnerID:     t.OwnerID,
		TaskID:      t.TaskID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Status:      t.Status,
	}
}

// legacyMessage covers both payloads produced before the versioned schema:
// the creation-time {UserId, TaskId, Title, Description} message, where
// Description held the due date, and the scanner's full-row message.
type legacyMessage struct {
	UserID      string  `json:"UserId"`
	TaskID      string  `json:"TaskId"`
	Title       string  `json:"Title"`
	Description *string `json:"Description"`
	DueDate     *string `json:"DueDate"`
	Status      string  `json:"Status"`
}

// DecodeReminderMessage parses a queue body in the canonical or a legacy shape.
func DecodeReminderMessage(body []byte) (ReminderMessage, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return ReminderMessage{}, InvalidArgument("decode reminder", "malformed message: %v", err)
	}

	var msg ReminderMessage
	if _, ok := probe["version"]; ok {
		if err := json.Unmarshal(body, &msg); err != nil {
			return ReminderMessage{}, InvalidArgument("decode reminder", "malformed message: %v", err)
		}
	} else {
		var legacy legacyMessage
		if err := json.Unmarshal(body, &legacy); err != nil {
			return ReminderMessage{}, InvalidArgument("decode reminder", "malformed legacy message: %v", err)
		}
		msg = ReminderMessage{
			Version: 0,
			OwnerID: legacy.UserID,
			TaskID:  legacy.TaskID,
			Title:   legacy.Title,
			Status:  legacy.Status,
		}
		switch {
		case legacy.DueDate != nil:
			msg.Source = SourceScan
			msg.DueDate = *legacy.DueDate
			if legacy.Description != nil {
				msg.Description = *legacy.Description
			}
		case legacy.Description != nil:
			// creation-time shape: the due date was written under Description
			msg.Source = SourceCreated
			msg.DueDate = *legacy.Description
		}
	}

	if msg.OwnerID == "" || msg.TaskID == "" {
		return ReminderMessage{}, InvalidArgument("decode reminder", "message missing owner or task id")
	}
	return msg, nil
}

// Reminder is a formatted notification ready to publish.
type Reminder struct {
	OwnerID string `json:"owner_id"`
	TaskID  string `json:"task_id"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// FormatReminder renders the human readable reminder for msg.
func FormatReminder(msg ReminderMessage) Reminder {
	text := fmt.Sprintf("Reminder: You have a task due soon!\nTask ID: %s\nUser ID: %s\nTitle: %s\nDue Date: %s\n",
		msg.TaskID, msg.OwnerID, msg.Title, msg.DueDate)
	return Reminder{
		OwnerID: msg.OwnerID,
		TaskID:  msg.TaskID,
		Subject: ReminderSubject,
		Text:    text,
	}
}
