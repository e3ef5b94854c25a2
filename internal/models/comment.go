package models

import "time"

type Comment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type CommentInput struct {
	Content string `json:"content"`
}

// HistoryEntry is a server-generated audit record. Details holds the changed
// fields as "field: old -> new" pairs joined by ", ".
type HistoryEntry struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Details    *string   `json:"details"`
	CreatedAt  time.Time `json:"created_at"`
}
