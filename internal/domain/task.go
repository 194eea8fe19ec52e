package domain

// Task statuses.
const (
	StatusPending         = "Pending"
	StatusReminderPending = "ReminderPending"
)

// Attribute names shared by the JSON API and the task stores.
const (
	AttrOwnerID       = "owner_id"
	AttrTaskID        = "task_id"
	AttrTitle         = "title"
	AttrDescription   = "description"
	AttrDueDate       = "due_date"
	AttrStatus        = "status"
	AttrAttachmentURL = "attachment_url"
	AttrDueOn         = "due_on"
	AttrDueMonth      = "due_month"
)

type Task struct {
	OwnerID       string  `json:"owner_id" dynamodbav:"owner_id"`
	TaskID        string  `json:"task_id" dynamodbav:"task_id"`
	Title         string  `json:"title" dynamodbav:"title"`
	Description   string  `json:"description" dynamodbav:"description"`
	DueDate       string  `json:"due_date" dynamodbav:"due_date"`
	Status        string  `json:"status" dynamodbav:"status"`
	AttachmentURL *string `json:"attachment_url" dynamodbav:"attachment_url"`

	// Derived from DueDate; keys of the due-date index.
	DueOn    string `json:"-" dynamodbav:"due_on,omitempty"`
	DueMonth string `json:"-" dynamodbav:"due_month,omitempty"`
}

// MutableFields are the attributes a client may change through a partial
// update. attachment_url is owned by the attach-file operation and the
// identity fields never change.
var MutableFields = map[string]bool{
	AttrTitle:       true,
	AttrDescription: true,
	AttrDueDate:     true,
	AttrStatus:      true,
}
