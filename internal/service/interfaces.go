package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/maqsadm/maqsadm/pkg/entity"
)

type RegisterRequest struct {
	Name     string `validate:"required,alphanum_underscore,min=3,max=100"`
	Password string `validate:"required,min=8,max=72"`
}

type CreateGroupRequest struct {
	Name string `validate:"required,min=3,max=100"`
}

type CreateTaskRequest struct {
	Title       string `validate:"required,min=1,max=200"`
	Description string `validate:"max=2000"`
	Coins       int    `validate:"required,min=1,max=1000"`
	Scope       entity.TaskScope
	GroupID     uuid.UUID
	Schedule    entity.Schedule
}

// CompletionResult is what a completion attempt yields. AlreadyCompleted
// means the record existed before the call and no coins were credited.
type CompletionResult struct {
	Record           *entity.CompletionRecord `json:"record"`
	NewBalance       int64                    `json:"new_balance"`
	AlreadyCompleted bool                     `json:"already_completed"`
}

type UserServiceI interface {
	// Validates user's credentials, creates new row in database. Returns user's data with ID
	Register(ctx context.Context, req *RegisterRequest) (*entity.User, error)
	// Compares given credentials. If ok, give back user's data with ID.
	Login(ctx context.Context, name, password string) (*entity.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByName(ctx context.Context, name string) (*entity.User, error)
	// Replaces user's goals free text
	UpdateGoals(ctx context.Context, id uuid.UUID, goals string) error
	DeleteAccount(ctx context.Context, id uuid.UUID, password string) error
}

type GroupsServiceI interface {
	// Creates group, creator becomes first member
	CreateGroup(ctx context.Context, creatorID uuid.UUID, req *CreateGroupRequest) (*entity.Group, error)
	JoinGroup(ctx context.Context, groupID, userID uuid.UUID) error
	LeaveGroup(ctx context.Context, groupID, userID uuid.UUID) error
	// Only the creator can delete a group
	DeleteGroup(ctx context.Context, groupID, userID uuid.UUID) error
	UserGroups(ctx context.Context, userID uuid.UUID) ([]*entity.Group, error)
	// Members listing is available to members only
	GroupMembers(ctx context.Context, groupID, requesterID uuid.UUID) ([]entity.GroupMember, error)
}

type TasksServiceI interface {
	// Validates schedule and scope, creates task. Group tasks require membership
	CreateTask(ctx context.Context, creatorID uuid.UUID, req *CreateTaskRequest) (*entity.Task, error)
	// Aggregates the user's due tasks for a date: personal first, then group
	// tasks per membership, each annotated with completion state
	TasksForUser(ctx context.Context, userID uuid.UUID, date time.Time) ([]entity.TaskWithStatus, error)
	// Lists every task in a scope regardless of schedule: the user's personal
	// tasks, or a group's tasks for members
	ListTasks(ctx context.Context, userID uuid.UUID, scope entity.TaskScope, groupID uuid.UUID) ([]*entity.Task, error)
	GetTask(ctx context.Context, taskID, userID uuid.UUID) (*entity.Task, error)
	DeleteTask(ctx context.Context, taskID, userID uuid.UUID) error
}

type CompletionsServiceI interface {
	// Records completion and credits coins, at most once per (user, task, day)
	CompleteTask(ctx context.Context, userID, taskID uuid.UUID, date time.Time) (*CompletionResult, error)
	// Provides user's completion history for a period
	History(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]entity.CompletionRecord, error)
}

type LeaderboardServiceI interface {
	Top(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error)
	MyRank(ctx context.Context, userID uuid.UUID) (*entity.LeaderboardEntry, error)
}
