package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/maqsadm/maqsadm/pkg/entity"
)

type UsersRepositoryI interface {
	// Creates new user in database
	Create(ctx context.Context, user *entity.User) error
	// Looks up user by name. Can be used for login
	FindByName(ctx context.Context, name string) (*entity.User, error)
	// Looks up user by uid. Can be used for authorization middleware
	FindByID(ctx context.Context, uid uuid.UUID) (*entity.User, error)
	// Updates user's goals free text (consumed by the AI layer)
	UpdateGoals(ctx context.Context, uid uuid.UUID, goals string) error
	// Deletes user
	Delete(ctx context.Context, uid uuid.UUID) error
	// Lists top users by coin balance, richest first
	TopByCoins(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error)
	// Returns user's leaderboard position (1-based) with balance
	RankByCoins(ctx context.Context, uid uuid.UUID) (*entity.LeaderboardEntry, error)
}

type GroupsRepositoryI interface {
	// Creates new group and adds creator as first member. Returns group id
	Create(ctx context.Context, group *entity.Group) (uuid.UUID, error)
	// Searches group with given id
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Group, error)
	// Deletes group with id. Group tasks go away by FK cascade
	Delete(ctx context.Context, id uuid.UUID) error
	// Adds user to group members
	AddMember(ctx context.Context, groupID, userID uuid.UUID) error
	// Removes user from group members
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error
	// Inspects if user is a member of group
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	// Lists members of group with join dates and balances
	GetMembers(ctx context.Context, groupID uuid.UUID) ([]entity.GroupMember, error)
	// Lists groups user is a member of, oldest membership first
	GetUserGroups(ctx context.Context, userID uuid.UUID) ([]*entity.Group, error)
}

type TasksRepositoryI interface {
	// Creates new task in database. Returns generated id
	Create(ctx context.Context, task *entity.Task) (uuid.UUID, error)
	// Searches task with given id
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Task, error)
	// Lists personal tasks of user, creation order
	GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Task, error)
	// Lists tasks of group, creation order
	GetByGroup(ctx context.Context, groupID uuid.UUID) ([]*entity.Task, error)
	// Deletes task with id. Completion history stays (append-only)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CompletionsRepositoryI interface {
	// Complete inserts the completion record and credits the user's balance in
	// one transaction. The unique index on (user_id, task_id, completion_date)
	// makes the reward at-most-once: when the key already exists the prior
	// record is returned with created=false and no coins are credited.
	Complete(ctx context.Context, userID, taskID uuid.UUID, date time.Time, coins int) (rec *entity.CompletionRecord, newBalance int64, created bool, err error)
	// Inspects if completion record exists for the key
	Exists(ctx context.Context, userID, taskID uuid.UUID, date time.Time) (bool, error)
	// Provides completions of user for a period, newest first
	GetByUserAndDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]entity.CompletionRecord, error)
	// Returns set of task ids user completed on date, for list annotation
	CompletedTaskIDs(ctx context.Context, userID uuid.UUID, date time.Time) (map[uuid.UUID]bool, error)
}

// LeaderboardCacheI is a best-effort redis cache over coin balances.
// Postgres stays the source of truth, any of these may fail without
// affecting correctness.
type LeaderboardCacheI interface {
	// Writes user's balance into the ranking set
	SetScore(ctx context.Context, userID uuid.UUID, coins int64) error
	// Returns user's 1-based rank and cached balance, ErrCacheMiss when absent
	Rank(ctx context.Context, userID uuid.UUID) (rank, coins int64, err error)
	// Caches the serialized top list for a short TTL
	SetTop(ctx context.Context, entries []entity.LeaderboardEntry) error
	// Returns cached top list, ErrCacheMiss when absent or expired
	GetTop(ctx context.Context) ([]entity.LeaderboardEntry, error)
	// Replaces the whole ranking set
	Rebuild(ctx context.Context, entries []entity.LeaderboardEntry) error
}

type DBConfig interface {
	ConnString() string
}

type PgConnection interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGCfg struct {
	Address  string
	Username string
	Password string
	DB       string
}

func (pgcfg *PGCfg) ConnString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s", pgcfg.Username, pgcfg.Password, pgcfg.Address, pgcfg.DB)
}
