package models

import "time"

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type Task struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description"`
	Status       TaskStatus `json:"status"`
	DueDate      *time.Time `json:"due_date"`
	AssignedToID *int64     `json:"assigned_to_id"`
	OwnerID      int64      `json:"owner_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TaskFilter narrows GET /tasks. Both fields are optional and may be combined.
type TaskFilter struct {
	Status TaskStatus
	Search string
}

type TaskInput struct {
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	Status       TaskStatus `json:"status"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	AssignedToID *int64     `json:"assigned_to_id,omitempty"`
}

// TaskPatch is a partial update. Absent fields are left out of the request
// body; the nullable fields can also be sent as null to clear them.
type TaskPatch struct {
	Title        *string             `json:"title,omitempty"`
	Description  Optional[string]    `json:"description,omitzero"`
	Status       *TaskStatus         `json:"status,omitempty"`
	DueDate      Optional[time.Time] `json:"due_date,omitzero"`
	AssignedToID Optional[int64]     `json:"assigned_to_id,omitzero"`
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && !p.Description.Present && p.Status == nil &&
		!p.DueDate.Present && !p.AssignedToID.Present
}
