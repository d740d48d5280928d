package service

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	errorvalues "github.com/maqsadm/maqsadm/internal/error_values"
	"github.com/maqsadm/maqsadm/internal/repository"
	"github.com/maqsadm/maqsadm/pkg/entity"
)

type TasksService struct {
	tasksRepo       repository.TasksRepositoryI
	groupsRepo      repository.GroupsRepositoryI
	completionsRepo repository.CompletionsRepositoryI
}

func NewTasksService(tasksRepo repository.TasksRepositoryI, groupsRepo repository.GroupsRepositoryI, completionsRepo repository.CompletionsRepositoryI) *TasksService {
	if tasksRepo == nil || groupsRepo == nil || completionsRepo == nil {
		log.Fatal("on tasks service provided nil repos")
	}
	return &TasksService{
		tasksRepo:       tasksRepo,
		groupsRepo:      groupsRepo,
		completionsRepo: completionsRepo,
	}
}

func (ts *TasksService) CreateTask(ctx context.Context, creatorID uuid.UUID, req *CreateTaskRequest) (*entity.Task, error) {
	err := validate.Struct(*req)
	if err != nil {
		if validationError, ok := err.(validator.ValidationErrors); ok {
			err = errors.New("validation error: ")
			for _, fieldErr := range validationError {
				err = errors.Join(err, fieldErr)
			}
			return nil, err
		}
		return nil, errors.New("validation unexpected error: " + err.Error())
	}
	// Schedules that could never fire are rejected here, never persisted
	if err = req.Schedule.Validate(); err != nil {
		return nil, err
	}
	task := entity.Task{
		Scope:       req.Scope,
		Title:       req.Title,
		Description: req.Description,
		Coins:       req.Coins,
		Schedule:    req.Schedule,
	}
	switch req.Scope {
	case entity.ScopePersonal:
		task.OwnerID = creatorID
	case entity.ScopeGroup:
		isMember, err := ts.groupsRepo.IsMember(ctx, req.GroupID, creatorID)
		if err != nil {
			return nil, errors.New("groups repository error: " + err.Error())
		}
		if !isMember {
			return nil, errorvalues.ErrNotGroupMember
		}
		task.GroupID = req.GroupID
	default:
		return nil, errors.New("unknown task scope: " + string(req.Scope))
	}
	id, err := ts.tasksRepo.Create(ctx, &task)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrOwnerNotFound), errors.Is(err, errorvalues.ErrGroupNotFound):
			return nil, err
		}
		return nil, errors.New("tasks repository error: " + err.Error())
	}
	created, err := ts.tasksRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrTaskNotFound) {
			return nil, err
		}
		return nil, errors.New("tasks repository error: " + err.Error())
	}
	return created, nil
}

// TasksForUser builds the user's task list for a date: personal tasks first,
// then group tasks per membership, both in creation order, filtered to the
// ones due on the date and annotated with completion state. Output is
// deterministic for identical inputs. A group that can't be resolved anymore
// is logged and skipped, the rest of the listing survives.
func (ts *TasksService) TasksForUser(ctx context.Context, userID uuid.UUID, date time.Time) ([]entity.TaskWithStatus, error) {
	due := make([]*entity.Task, 0, 8)
	personal, err := ts.tasksRepo.GetByOwner(ctx, userID)
	if err != nil {
		return nil, errors.New("tasks repository error: " + err.Error())
	}
	for _, task := range personal {
		if task.Schedule.DueOn(date) {
			due = append(due, task)
		}
	}
	groups, err := ts.groupsRepo.GetUserGroups(ctx, userID)
	if err != nil {
		return nil, errors.New("groups repository error: " + err.Error())
	}
	for _, group := range groups {
		groupTasks, err := ts.tasksRepo.GetByGroup(ctx, group.ID)
		if err != nil {
			slog.Warn("skipping unresolvable group in task listing",
				slog.String("group_id", group.ID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, task := range groupTasks {
			if task.Schedule.DueOn(date) {
				due = append(due, task)
			}
		}
	}
	completed, err := ts.completionsRepo.CompletedTaskIDs(ctx, userID, date)
	if err != nil {
		return nil, errors.New("completions repository error: " + err.Error())
	}
	result := make([]entity.TaskWithStatus, 0, len(due))
	for _, task := range due {
		result = append(result, entity.TaskWithStatus{
			Task:        task,
			IsCompleted: completed[task.ID],
		})
	}
	return result, nil
}

// ListTasks returns every task in a scope regardless of schedule: the user's
// own personal tasks, or a group's tasks for members.
func (ts *TasksService) ListTasks(ctx context.Context, userID uuid.UUID, scope entity.TaskScope, groupID uuid.UUID) ([]*entity.Task, error) {
	switch scope {
	case entity.ScopePersonal:
		tasks, err := ts.tasksRepo.GetByOwner(ctx, userID)
		if err != nil {
			return nil, errors.New("tasks repository error: " + err.Error())
		}
		return tasks, nil
	case entity.ScopeGroup:
		isMember, err := ts.groupsRepo.IsMember(ctx, groupID, userID)
		if err != nil {
			return nil, errors.New("groups repository error: " + err.Error())
		}
		if !isMember {
			return nil, errorvalues.ErrNotGroupMember
		}
		tasks, err := ts.tasksRepo.GetByGroup(ctx, groupID)
		if err != nil {
			return nil, errors.New("tasks repository error: " + err.Error())
		}
		return tasks, nil
	}
	return nil, errors.New("unknown task scope: " + string(scope))
}

func (ts *TasksService) GetTask(ctx context.Context, taskID, userID uuid.UUID) (*entity.Task, error) {
	task, err := ts.tasksRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrTaskNotFound) {
			return nil, err
		}
		return nil, errors.New("tasks repository error: " + err.Error())
	}
	if err = ts.checkVisibility(ctx, task, userID); err != nil {
		return nil, err
	}
	return task, nil
}

func (ts *TasksService) DeleteTask(ctx context.Context, taskID, userID uuid.UUID) error {
	task, err := ts.tasksRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrTaskNotFound) {
			return err
		}
		return errors.New("tasks repository error: " + err.Error())
	}
	if err = ts.checkDeletable(ctx, task, userID); err != nil {
		return err
	}
	err = ts.tasksRepo.Delete(ctx, taskID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrTaskNotFound) {
			return err
		}
		return errors.New("tasks repository error: " + err.Error())
	}
	return nil
}

// checkDeletable is stricter than visibility: a group task has no per-member
// owner, so only the group's creator may delete it.
func (ts *TasksService) checkDeletable(ctx context.Context, task *entity.Task, userID uuid.UUID) error {
	if err := ts.checkVisibility(ctx, task, userID); err != nil {
		return err
	}
	if task.Scope != entity.ScopeGroup {
		return nil
	}
	group, err := ts.groupsRepo.GetByID(ctx, task.GroupID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrGroupNotFound) {
			return err
		}
		return errors.New("groups repository error: " + err.Error())
	}
	if group.CreatorID != userID {
		return errorvalues.ErrNotGroupOwner
	}
	return nil
}

// checkVisibility enforces the scope invariant: a personal task belongs to its
// owner, a group task to the group's members.
func (ts *TasksService) checkVisibility(ctx context.Context, task *entity.Task, userID uuid.UUID) error {
	switch task.Scope {
	case entity.ScopePersonal:
		if task.OwnerID != userID {
			return errorvalues.ErrWrongOwner
		}
	case entity.ScopeGroup:
		isMember, err := ts.groupsRepo.IsMember(ctx, task.GroupID, userID)
		if err != nil {
			return errors.New("groups repository error: " + err.Error())
		}
		if !isMember {
			return errorvalues.ErrNotGroupMember
		}
	default:
		return errors.New("unknown task scope: " + string(task.Scope))
	}
	return nil
}
