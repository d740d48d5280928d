package service

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"time"

	"github.com/google/uuid"
	errorvalues "github.com/maqsadm/maqsadm/internal/error_values"
	"github.com/maqsadm/maqsadm/internal/repository"
	"github.com/maqsadm/maqsadm/pkg/entity"
)

type CompletionsService struct {
	tasksRepo       repository.TasksRepositoryI
	groupsRepo      repository.GroupsRepositoryI
	completionsRepo repository.CompletionsRepositoryI
	leaderboard     repository.LeaderboardCacheI
}

func NewCompletionsService(tasksRepo repository.TasksRepositoryI, groupsRepo repository.GroupsRepositoryI,
	completionsRepo repository.CompletionsRepositoryI, leaderboard repository.LeaderboardCacheI) *CompletionsService {
	if tasksRepo == nil || groupsRepo == nil || completionsRepo == nil {
		log.Fatal("on completions service provided nil repos")
	}
	return &CompletionsService{
		tasksRepo:       tasksRepo,
		groupsRepo:      groupsRepo,
		completionsRepo: completionsRepo,
		leaderboard:     leaderboard,
	}
}

// CompleteTask records that the user finished the task on the date and credits
// the task's coins, at most once per (user, task, day). A repeated call is an
// idempotent success: the prior record comes back with AlreadyCompleted set
// and the balance untouched.
func (serv *CompletionsService) CompleteTask(ctx context.Context, userID, taskID uuid.UUID, date time.Time) (*CompletionResult, error) {
	task, err := serv.tasksRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrTaskNotFound) {
			return nil, err
		}
		return nil, errors.New("tasks repository error: " + err.Error())
	}
	switch task.Scope {
	case entity.ScopePersonal:
		if task.OwnerID != userID {
			return nil, errorvalues.ErrWrongOwner
		}
	case entity.ScopeGroup:
		isMember, err := serv.groupsRepo.IsMember(ctx, task.GroupID, userID)
		if err != nil {
			return nil, errors.New("groups repository error: " + err.Error())
		}
		if !isMember {
			return nil, errorvalues.ErrNotGroupMember
		}
	default:
		return nil, errors.New("unknown task scope: " + string(task.Scope))
	}
	if dateAfterDay(date, time.Now()) {
		return nil, errorvalues.ErrCompletionDateNotAllowed
	}
	if !task.Schedule.DueOn(date) {
		return nil, errorvalues.ErrTaskNotDue
	}
	rec, newBalance, created, err := serv.completionsRepo.Complete(ctx, userID, taskID, date, task.Coins)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrUserNotFound), errors.Is(err, errorvalues.ErrCompletionNotFound):
			return nil, err
		}
		return nil, errors.New("completions repository error: " + err.Error())
	}
	if created && serv.leaderboard != nil {
		// Cache write is best-effort, the balance in postgres is already final
		if err := serv.leaderboard.SetScore(ctx, userID, newBalance); err != nil {
			slog.Warn("updating leaderboard cache failed",
				slog.String("uid", userID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	return &CompletionResult{
		Record:           rec,
		NewBalance:       newBalance,
		AlreadyCompleted: !created,
	}, nil
}

func (serv *CompletionsService) History(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]entity.CompletionRecord, error) {
	if to.Before(from) {
		return nil, errors.New("invalid period: to is before from")
	}
	records, err := serv.completionsRepo.GetByUserAndDateRange(ctx, userID, from, to)
	if err != nil {
		return nil, errors.New("completions repository error: " + err.Error())
	}
	return records, nil
}

// dateAfterDay compares at day granularity: true iff a's calendar day is
// strictly after b's.
func dateAfterDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}
