package reminder

import (
	"time"

	"github.com/RobCalvi/BNC-BE/internal/company"
)

// State is the derived temporal state shown for a reminder. It is
// computed at read time and never persisted; a reminder whose due
// date passes flips to PAST without any write.
type State string

const (
	StatePast    State = "PAST"
	StateNotPast State = "NOT_PAST"
)

// Reminder is a scheduled follow-up tied to exactly one
// (company, action) pair. At most one reminder exists per pair;
// creation upserts on that composite key. Completion is terminal.
type Reminder struct {
	ID        string    `bson:"id" json:"id"`
	CompanyID string    `bson:"company_id" json:"companyId"`
	ActionID  string    `bson:"action_id" json:"actionId"`
	DueDate   time.Time `bson:"due_date" json:"dueDate"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	Completed bool      `bson:"completed" json:"isCompleted"`
}

// StateAt computes the display state relative to now.
func (r *Reminder) StateAt(now time.Time) State {
	if now.After(r.DueDate) {
		return StatePast
	}
	return StateNotPast
}

// Display joins a reminder with its owning company's name and the
// referenced action for presentation. Not persisted.
type Display struct {
	ID          string         `json:"id"`
	CompanyName string         `json:"companyName"`
	IsCompleted bool           `json:"isCompleted"`
	State       State          `json:"state"`
	CreatedAt   time.Time      `json:"createdAt"`
	DueDate     time.Time      `json:"dueDate"`
	Action      company.Action `json:"action"`
}

// UpdateFields maps the externally visible names accepted by partial
// updates to their stored counterparts. Fields not listed here are
// silently dropped.
var UpdateFields = map[string]string{
	"dueDate":     "due_date",
	"isCompleted": "completed",
	"companyId":   "company_id",
	"actionId":    "action_id",
}
