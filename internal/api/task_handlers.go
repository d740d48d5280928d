package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	errorvalues "github.com/maqsadm/maqsadm/internal/error_values"
	"github.com/maqsadm/maqsadm/internal/service"
	"github.com/maqsadm/maqsadm/pkg/entity"
	"github.com/maqsadm/maqsadm/pkg/httputil"
)

const dateLayout = "2006-01-02"

type CreateTaskRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"desc"`
	Coins       int             `json:"coins"`
	Scope       string          `json:"scope"`
	GroupID     string          `json:"group_id,omitempty"`
	Schedule    entity.Schedule `json:"schedule"`
}

// dateFromQuery reads the optional ?date= parameter, defaulting to today.
func dateFromQuery(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse(dateLayout, raw)
}

func (s *Server) CreateTask(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("task creation error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req CreateTaskRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("task creation error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	serviceReq := service.CreateTaskRequest{
		Title:       req.Title,
		Description: req.Description,
		Coins:       req.Coins,
		Scope:       entity.TaskScope(req.Scope),
		Schedule:    req.Schedule,
	}
	if req.GroupID != "" {
		groupID, err := uuid.Parse(req.GroupID)
		if err != nil {
			logger.Error("task creation error: invalid group id")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid group id", nil)
			return
		}
		serviceReq.GroupID = groupID
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	task, err := s.tasksService.CreateTask(ctx, uid, &serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrInvalidSchedule):
			logger.Error("task creation error: invalid schedule")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid schedule", nil)
		case errors.Is(err, errorvalues.ErrGroupNotFound):
			logger.Error("task creation error: unexist group")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "group doesn't exist", nil)
		case errors.Is(err, errorvalues.ErrNotGroupMember):
			logger.Error("task creation error: not a member")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "group tasks require membership", nil)
		default:
			logger.Error("task creation error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while creating task", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, task)
	logger.Info("task created", slog.String("task_id", task.ID.String()))
}

func (s *Server) TodayTasks(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("tasks listing error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	date, err := dateFromQuery(r)
	if err != nil {
		logger.Error("tasks listing error: invalid date")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	tasks, err := s.tasksService.TasksForUser(ctx, uid, date)
	if err != nil {
		logger.Error("tasks listing error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while listing tasks", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"date":  date.Format(dateLayout),
		"tasks": tasks,
	})
	logger.Info("tasks provided", slog.Int("count", len(tasks)))
}

func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("tasks listing error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	scope := entity.TaskScope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = entity.ScopePersonal
	}
	var groupID uuid.UUID
	if scope == entity.ScopeGroup {
		groupID, err = uuid.Parse(r.URL.Query().Get("group_id"))
		if err != nil {
			logger.Error("tasks listing error: invalid group id")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "group scope requires a valid group_id", nil)
			return
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	tasks, err := s.tasksService.ListTasks(ctx, uid, scope, groupID)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrNotGroupMember):
			logger.Error("tasks listing error: not a member")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "group tasks require membership", nil)
		default:
			logger.Error("tasks listing error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while listing tasks", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"tasks": tasks})
	logger.Info("tasks provided", slog.Int("count", len(tasks)))
}

func (s *Server) DeleteTask(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("task deletion error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	taskID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("task deletion error: invalid task id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid task id", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err = s.tasksService.DeleteTask(ctx, taskID, uid)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrTaskNotFound):
			logger.Error("task deletion error: unexist task")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "task doesn't exist", nil)
		case errors.Is(err, errorvalues.ErrWrongOwner), errors.Is(err, errorvalues.ErrNotGroupMember):
			logger.Error("task deletion error: no access")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "no access to this task", nil)
		case errors.Is(err, errorvalues.ErrNotGroupOwner):
			logger.Error("task deletion error: not the group creator")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "only the group creator can delete group tasks", nil)
		default:
			logger.Error("task deletion error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while deleting task", nil)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
	logger.Info("task deleted", slog.String("task_id", taskID.String()))
}

func (s *Server) CompleteTask(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("task completion error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	taskID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("task completion error: invalid task id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid task id", nil)
		return
	}
	date, err := dateFromQuery(r)
	if err != nil {
		logger.Error("task completion error: invalid date")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	result, err := s.completionsService.CompleteTask(ctx, uid, taskID, date)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrTaskNotFound):
			logger.Error("task completion error: unexist task")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "task doesn't exist", nil)
		case errors.Is(err, errorvalues.ErrWrongOwner), errors.Is(err, errorvalues.ErrNotGroupMember):
			logger.Error("task completion error: no access")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "no access to this task", nil)
		case errors.Is(err, errorvalues.ErrTaskNotDue):
			logger.Error("task completion error: task not due")
			httputil.WriteErrorResponse(w, http.StatusConflict, "task is not due on this date", nil)
		case errors.Is(err, errorvalues.ErrCompletionDateNotAllowed):
			logger.Error("task completion error: future date")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "can't complete tasks for future dates", nil)
		default:
			logger.Error("task completion error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while completing task", nil)
		}
		return
	}
	status := http.StatusCreated
	if result.AlreadyCompleted {
		status = http.StatusOK
	}
	httputil.WriteJSONResponse(w, status, result)
	logger.Info("task completion handled",
		slog.String("task_id", taskID.String()),
		slog.Bool("already_completed", result.AlreadyCompleted))
}

func (s *Server) CompletionHistory(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("history error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	to := time.Now()
	from := to.AddDate(0, 0, -30)
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err = time.Parse(dateLayout, raw)
		if err != nil {
			logger.Error("history error: invalid from date")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD", nil)
			return
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err = time.Parse(dateLayout, raw)
		if err != nil {
			logger.Error("history error: invalid to date")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD", nil)
			return
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	records, err := s.completionsService.History(ctx, uid, from, to)
	if err != nil {
		logger.Error("history error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting history", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"completions": records})
	logger.Info("history provided", slog.Int("count", len(records)))
}
