package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Name         string
	PasswordHash string
	Goals        string
	Coins        int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Group struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatorID uuid.UUID `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
}

type GroupMember struct {
	GroupID  uuid.UUID `json:"group_id"`
	UserID   uuid.UUID `json:"uid"`
	Name     string    `json:"name"`
	Coins    int64     `json:"coins"`
	JoinedAt time.Time `json:"joined_at"`
}

type TaskScope string

const (
	ScopePersonal TaskScope = "personal"
	ScopeGroup    TaskScope = "group"
)

// Task belongs to exactly one scope: OwnerID is set for personal tasks,
// GroupID for group tasks, never both.
type Task struct {
	ID          uuid.UUID `json:"id"`
	Scope       TaskScope `json:"scope"`
	OwnerID     uuid.UUID `json:"owner_id,omitempty"`
	GroupID     uuid.UUID `json:"group_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"desc"`
	Coins       int       `json:"coins"`
	Schedule    Schedule  `json:"schedule"`
	CreatedAt   time.Time `json:"created_at"`
}

// TaskWithStatus is one row of a user's daily task list.
type TaskWithStatus struct {
	Task        *Task `json:"task"`
	IsCompleted bool  `json:"is_completed"`
}

// CompletionRecord is the durable fact that a user finished a task on a date.
// Rows are append-only: created on first completion, immutable after.
type CompletionRecord struct {
	ID             int64     `json:"id"`
	UserID         uuid.UUID `json:"uid"`
	TaskID         uuid.UUID `json:"task_id"`
	CompletionDate time.Time `json:"completion_date"`
	CoinsAwarded   int       `json:"coins_awarded"`
	CreatedAt      time.Time `json:"created_at"`
}

type LeaderboardEntry struct {
	UserID uuid.UUID `json:"uid"`
	Name   string    `json:"name,omitempty"`
	Coins  int64     `json:"coins"`
	Rank   int64     `json:"rank"`
}
