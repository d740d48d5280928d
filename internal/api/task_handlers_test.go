package api_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/maqsadm/maqsadm/internal/api"
	errorvalues "github.com/maqsadm/maqsadm/internal/error_values"
	"github.com/maqsadm/maqsadm/internal/repository"
	"github.com/maqsadm/maqsadm/internal/service"
	"github.com/maqsadm/maqsadm/internal/service/mocks"
	"github.com/maqsadm/maqsadm/pkg/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTask(t *testing.T) {
	ctrl := gomock.NewController(t)
	tService := mocks.NewMockTasksServiceI(ctrl)
	serv := api.New(&api.ServicesList{
		TasksService: tService,
	})
	schedule := entity.Schedule{
		Kind: entity.ScheduleRecurring,
		Days: entity.WeekdaysOf(time.Monday, time.Wednesday),
	}
	reqBody := api.CreateTaskRequest{
		Title:       "morning run",
		Description: "5km around the park",
		Coins:       25,
		Scope:       "personal",
		Schedule:    schedule,
	}
	body, err := sonic.ConfigDefault.Marshal(reqBody)
	require.NoError(t, err)
	serviceReq := &service.CreateTaskRequest{
		Title:       reqBody.Title,
		Description: reqBody.Description,
		Coins:       reqBody.Coins,
		Scope:       entity.ScopePersonal,
		Schedule:    schedule,
	}
	taskID := uuid.New()

	testCases := []struct {
		ExpectedCode int
		MockPrepFunc func()
		Body         io.Reader
	}{
		{
			ExpectedCode: http.StatusCreated,
			MockPrepFunc: func() {
				tService.EXPECT().CreateTask(gomock.Any(), userID, serviceReq).Return(&entity.Task{
					ID:          taskID,
					Scope:       entity.ScopePersonal,
					OwnerID:     userID,
					Title:       reqBody.Title,
					Description: reqBody.Description,
					Coins:       reqBody.Coins,
					Schedule:    schedule,
					CreatedAt:   time.Now(),
				}, nil)
			},
			Body: bytes.NewReader(body),
		},
		{
			ExpectedCode: http.StatusBadRequest,
			MockPrepFunc: func() {
				tService.EXPECT().CreateTask(gomock.Any(), userID, serviceReq).Return(nil, errorvalues.ErrInvalidSchedule)
			},
			Body: bytes.NewReader(body),
		},
		{
			ExpectedCode: http.StatusNotFound,
			MockPrepFunc: func() {
				tService.EXPECT().CreateTask(gomock.Any(), userID, serviceReq).Return(nil, errorvalues.ErrGroupNotFound)
			},
			Body: bytes.NewReader(body),
		},
		{
			ExpectedCode: http.StatusForbidden,
			MockPrepFunc: func() {
				tService.EXPECT().CreateTask(gomock.Any(), userID, serviceReq).Return(nil, errorvalues.ErrNotGroupMember)
			},
			Body: bytes.NewReader(body),
		},
		{
			ExpectedCode: http.StatusInternalServerError,
			MockPrepFunc: func() {
				tService.EXPECT().CreateTask(gomock.Any(), userID, serviceReq).Return(nil, errors.New("service error"))
			},
			Body: bytes.NewReader(body),
		},
		{
			ExpectedCode: http.StatusBadRequest,
			MockPrepFunc: func() {},
			Body:         bytes.NewReader([]byte("corrupted")),
		},
	}
	for _, tc := range testCases {
		tc.MockPrepFunc()
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/tasks", tc.Body)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", userID))
		serv.CreateTask(rr, r)
		assert.Equal(t, tc.ExpectedCode, rr.Result().StatusCode)
	}
}

func TestTodayTasks(t *testing.T) {
	ctrl := gomock.NewController(t)
	tService := mocks.NewMockTasksServiceI(ctrl)
	serv := api.New(&api.ServicesList{
		TasksService: tService,
	})
	tasks := []entity.TaskWithStatus{
		{Task: &entity.Task{ID: uuid.New(), Scope: entity.ScopePersonal, OwnerID: userID, Title: "morning run"}},
		{Task: &entity.Task{ID: uuid.New(), Scope: entity.ScopeGroup, GroupID: uuid.New(), Title: "standup"}, IsCompleted: true},
	}

	t.Run("tasks for today", func(t *testing.T) {
		tService.EXPECT().TasksForUser(gomock.Any(), userID, gomock.Any()).Return(tasks, nil)
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/tasks/today", nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", userID))
		serv.TodayTasks(rr, r)
		assert.Equal(t, http.StatusOK, rr.Result().StatusCode)
	})
	t.Run("tasks for explicit date", func(t *testing.T) {
		date, _ := time.Parse("2006-01-02", "2025-03-10")
		tService.EXPECT().TasksForUser(gomock.Any(), userID, date).Return(tasks, nil)
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/tasks/today?date=2025-03-10", nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", userID))
		serv.TodayTasks(rr, r)
		assert.Equal(t, http.StatusOK, rr.Result().StatusCode)
	})
	t.Run("invalid date", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/tasks/today?date=10.03.2025", nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", userID))
		serv.TodayTasks(rr, r)
		assert.Equal(t, http.StatusBadRequest, rr.Result().StatusCode)
	})
	t.Run("service error", func(t *testing.T) {
		tService.EXPECT().TasksForUser(gomock.Any(), userID, gomock.Any()).Return(nil, errors.New("service error"))
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/tasks/today", nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", userID))
		serv.TodayTasks(rr, r)
		assert.Equal(t, http.StatusInternalServerError, rr.Result().StatusCode)
	})
}

func TestListTasks(t *testing.T) {
	ctrl := gomock.NewController(t)
	tService := mocks.NewMockTasksServiceI(ctrl)
	serv := api.New(&api.ServicesList{
		TasksService: tService,
	})
	groupID := uuid.New()
	personal := []*entity.Task{
		{ID: uuid.New(), Scope: entity.ScopePersonal, OwnerID: userID, Title: "morning run"},
	}

	t.Run("personal by default", func(t *testing.T) {
		tService.EXPECT().ListTasks(gomock.Any(), userID, entity.ScopePersonal, uuid.UUID{}).Return(personal, nil)
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", userID))
		serv.ListTasks(rr, r)
		assert.Equal(t, http.StatusOK, rr.Result().StatusCode)
	})
	t.Run("group scope", func(t *testing.T) {
		tService.EXPECT().ListTasks(gomock.Any(), userID, entity.ScopeGroup, groupID).Return([]*entity.Task{}, nil)
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/tasks?scope=group&group_id="+groupID.String(), nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", userID))
		serv.ListTasks(rr, r)
		assert.Equal(t, http.StatusOK, rr.Result().StatusCode)
	})
	t.Run("group scope without group id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/tasks?scope=group", nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", userID))
		serv.ListTasks(rr, r)
		assert.Equal(t, http.StatusBadRequest, rr.Result().StatusCode)
	})
	t.Run("not a member", func(t *testing.T) {
		tService.EXPECT().ListTasks(gomock.Any(), userID, entity.ScopeGroup, groupID).Return(nil, errorvalues.ErrNotGroupMember)
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/tasks?scope=group&group_id="+groupID.String(), nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", userID))
		serv.ListTasks(rr, r)
		assert.Equal(t, http.StatusForbidden, rr.Result().StatusCode)
	})
	t.Run("service error", func(t *testing.T) {
		tService.EXPECT().ListTasks(gomock.Any(), userID, entity.ScopePersonal, uuid.UUID{}).Return(nil, errors.New("service error"))
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", userID))
		serv.ListTasks(rr, r)
		assert.Equal(t, http.StatusInternalServerError, rr.Result().StatusCode)
	})
}

func TestDeleteTask(t *testing.T) {
	ctrl := gomock.NewController(t)
	tService := mocks.NewMockTasksServiceI(ctrl)
	serv := api.New(&api.ServicesList{
		TasksService: tService,
	})
	taskID := uuid.New()
	testCases := []struct {
		ExpectedCode int
		MockPrepFunc func()
	}{
		{
			ExpectedCode: http.StatusNoContent,
			MockPrepFunc: func() {
				tService.EXPECT().DeleteTask(gomock.Any(), taskID, userID).Return(nil)
			},
		},
		{
			ExpectedCode: http.StatusNotFound,
			MockPrepFunc: func() {
				tService.EXPECT().DeleteTask(gomock.Any(), taskID, userID).Return(errorvalues.ErrTaskNotFound)
			},
		},
		{
			ExpectedCode: http.StatusForbidden,
			MockPrepFunc: func() {
				tService.EXPECT().DeleteTask(gomock.Any(), taskID, userID).Return(errorvalues.ErrWrongOwner)
			},
		},
		{
			ExpectedCode: http.StatusForbidden,
			MockPrepFunc: func() {
				tService.EXPECT().DeleteTask(gomock.Any(), taskID, userID).Return(errorvalues.ErrNotGroupMember)
			},
		},
		{
			ExpectedCode: http.StatusForbidden,
			MockPrepFunc: func() {
				tService.EXPECT().DeleteTask(gomock.Any(), taskID, userID).Return(errorvalues.ErrNotGroupOwner)
			},
		},
		{
			ExpectedCode: http.StatusInternalServerError,
			MockPrepFunc: func() {
				tService.EXPECT().DeleteTask(gomock.Any(), taskID, userID).Return(errors.New("service error"))
			},
		},
	}
	for _, tc := range testCases {
		tc.MockPrepFunc()
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodDelete, "/tasks/"+taskID.String(), nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", userID))
		r.SetPathValue("id", taskID.String())
		serv.DeleteTask(rr, r)
		assert.Equal(t, tc.ExpectedCode, rr.Result().StatusCode)
	}
}

func TestCompleteTask(t *testing.T) {
	ctrl := gomock.NewController(t)
	cService := mocks.NewMockCompletionsServiceI(ctrl)
	serv := api.New(&api.ServicesList{
		CompletionsService: cService,
	})
	taskID := uuid.New()
	record := &entity.CompletionRecord{
		ID:             1,
		UserID:         userID,
		TaskID:         taskID,
		CompletionDate: time.Now(),
		CoinsAwarded:   25,
		CreatedAt:      time.Now(),
	}
	testCases := []struct {
		ExpectedCode int
		MockPrepFunc func()
	}{
		{
			ExpectedCode: http.StatusCreated,
			MockPrepFunc: func() {
				cService.EXPECT().CompleteTask(gomock.Any(), userID, taskID, gomock.Any()).Return(&service.CompletionResult{
					Record:     record,
					NewBalance: 125,
				}, nil)
			},
		},
		{
			ExpectedCode: http.StatusOK,
			MockPrepFunc: func() {
				cService.EXPECT().CompleteTask(gomock.Any(), userID, taskID, gomock.Any()).Return(&service.CompletionResult{
					Record:           record,
					NewBalance:       125,
					AlreadyCompleted: true,
				}, nil)
			},
		},
		{
			ExpectedCode: http.StatusNotFound,
			MockPrepFunc: func() {
				cService.EXPECT().CompleteTask(gomock.Any(), userID, taskID, gomock.Any()).Return(nil, errorvalues.ErrTaskNotFound)
			},
		},
		{
			ExpectedCode: http.StatusForbidden,
			MockPrepFunc: func() {
				cService.EXPECT().CompleteTask(gomock.Any(), userID, taskID, gomock.Any()).Return(nil, errorvalues.ErrWrongOwner)
			},
		},
		{
			ExpectedCode: http.StatusConflict,
			MockPrepFunc: func() {
				cService.EXPECT().CompleteTask(gomock.Any(), userID, taskID, gomock.Any()).Return(nil, errorvalues.ErrTaskNotDue)
			},
		},
		{
			ExpectedCode: http.StatusBadRequest,
			MockPrepFunc: func() {
				cService.EXPECT().CompleteTask(gomock.Any(), userID, taskID, gomock.Any()).Return(nil, errorvalues.ErrCompletionDateNotAllowed)
			},
		},
		{
			ExpectedCode: http.StatusInternalServerError,
			MockPrepFunc: func() {
				cService.EXPECT().CompleteTask(gomock.Any(), userID, taskID, gomock.Any()).Return(nil, errors.New("service error"))
			},
		},
	}
	for _, tc := range testCases {
		tc.MockPrepFunc()
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/tasks/"+taskID.String()+"/complete", nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", userID))
		r.SetPathValue("id", taskID.String())
		serv.CompleteTask(rr, r)
		assert.Equal(t, tc.ExpectedCode, rr.Result().StatusCode)
	}
}

func TestCompletionHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	cService := mocks.NewMockCompletionsServiceI(ctrl)
	serv := api.New(&api.ServicesList{
		CompletionsService: cService,
	})
	records := []entity.CompletionRecord{
		{ID: 1, UserID: userID, TaskID: uuid.New(), CoinsAwarded: 25},
		{ID: 2, UserID: userID, TaskID: uuid.New(), CoinsAwarded: 10},
	}

	t.Run("default period", func(t *testing.T) {
		cService.EXPECT().History(gomock.Any(), userID, gomock.Any(), gomock.Any()).Return(records, nil)
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/completions", nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", userID))
		serv.CompletionHistory(rr, r)
		assert.Equal(t, http.StatusOK, rr.Result().StatusCode)
		result := make(map[string][]entity.CompletionRecord)
		err := sonic.ConfigDefault.NewDecoder(rr.Result().Body).Decode(&result)
		require.NoError(t, err)
		assert.Len(t, result["completions"], 2)
	})
	t.Run("explicit period", func(t *testing.T) {
		from, _ := time.Parse("2006-01-02", "2025-03-01")
		to, _ := time.Parse("2006-01-02", "2025-03-10")
		cService.EXPECT().History(gomock.Any(), userID, from, to).Return(records, nil)
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/completions?from=2025-03-01&to=2025-03-10", nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", userID))
		serv.CompletionHistory(rr, r)
		assert.Equal(t, http.StatusOK, rr.Result().StatusCode)
	})
	t.Run("invalid from date", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/completions?from=nonsense", nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", userID))
		serv.CompletionHistory(rr, r)
		assert.Equal(t, http.StatusBadRequest, rr.Result().StatusCode)
	})
	t.Run("service error", func(t *testing.T) {
		cService.EXPECT().History(gomock.Any(), userID, gomock.Any(), gomock.Any()).Return(nil, errors.New("service error"))
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/completions", nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", userID))
		serv.CompletionHistory(rr, r)
		assert.Equal(t, http.StatusInternalServerError, rr.Result().StatusCode)
	})
}

// Hammers one task with parallel completion requests and expects the unique
// index to let exactly one of them credit coins.
func TestCompleteTaskIntegrational(t *testing.T) {
	cfg := setupUsersTestDB(t)
	usersRepo := repository.NewUsersRepo(cfg)
	tasksRepo := repository.NewTasksRepo(cfg)
	groupsRepo := repository.NewGroupsRepo(cfg)
	completionsRepo := repository.NewCompletionsRepo(cfg)
	serv := api.New(&api.ServicesList{
		UserService:        service.NewUserService(usersRepo),
		TasksService:       service.NewTasksService(tasksRepo, groupsRepo, completionsRepo),
		CompletionsService: service.NewCompletionsService(tasksRepo, groupsRepo, completionsRepo, nil),
	})

	var ownerID uuid.UUID
	t.Run("registering owner", func(t *testing.T) {
		body, err := sonic.ConfigDefault.Marshal(api.RegisterRequest{
			Name:     "completion_racer",
			Password: password,
		})
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
		serv.Register(rr, r)
		require.Equal(t, http.StatusCreated, rr.Result().StatusCode)
		result := make(map[string]string)
		err = sonic.ConfigDefault.NewDecoder(rr.Result().Body).Decode(&result)
		require.NoError(t, err)
		ownerID = uuid.MustParse(result["uid"])
	})

	var task entity.Task
	t.Run("creating task due today", func(t *testing.T) {
		body, err := sonic.ConfigDefault.Marshal(api.CreateTaskRequest{
			Title: "drink water",
			Coins: 25,
			Scope: "personal",
			Schedule: entity.Schedule{
				Kind: entity.ScheduleRecurring,
				Days: entity.WeekdaysOf(time.Now().Weekday()),
			},
		})
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewReader(body))
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", ownerID))
		serv.CreateTask(rr, r)
		require.Equal(t, http.StatusCreated, rr.Result().StatusCode)
		err = sonic.ConfigDefault.NewDecoder(rr.Result().Body).Decode(&task)
		require.NoError(t, err)
	})

	const attempts = 8
	statuses := make([]int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rr := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/tasks/"+task.ID.String()+"/complete", nil)
			r = r.WithContext(context.WithValue(r.Context(), "User-ID", ownerID))
			r.SetPathValue("id", task.ID.String())
			serv.CompleteTask(rr, r)
			statuses[i] = rr.Result().StatusCode
		}(i)
	}
	wg.Wait()

	created := 0
	for _, code := range statuses {
		if code == http.StatusCreated {
			created++
		} else {
			assert.Equal(t, http.StatusOK, code)
		}
	}
	assert.Equal(t, 1, created)

	t.Run("coins credited once", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", ownerID))
		serv.GetMe(rr, r)
		require.Equal(t, http.StatusOK, rr.Result().StatusCode)
		var resp api.MeResponse
		err := sonic.ConfigDefault.NewDecoder(rr.Result().Body).Decode(&resp)
		require.NoError(t, err)
		assert.Equal(t, int64(25), resp.Coins)
	})

	t.Run("single history record", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/completions", nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", ownerID))
		serv.CompletionHistory(rr, r)
		require.Equal(t, http.StatusOK, rr.Result().StatusCode)
		result := make(map[string][]entity.CompletionRecord)
		err := sonic.ConfigDefault.NewDecoder(rr.Result().Body).Decode(&result)
		require.NoError(t, err)
		assert.Len(t, result["completions"], 1)
	})

	t.Run("history survives task deletion", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodDelete, "/tasks/"+task.ID.String(), nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", ownerID))
		r.SetPathValue("id", task.ID.String())
		serv.DeleteTask(rr, r)
		require.Equal(t, http.StatusNoContent, rr.Result().StatusCode)

		rr = httptest.NewRecorder()
		r = httptest.NewRequest(http.MethodGet, "/completions", nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", ownerID))
		serv.CompletionHistory(rr, r)
		require.Equal(t, http.StatusOK, rr.Result().StatusCode)
		result := make(map[string][]entity.CompletionRecord)
		err := sonic.ConfigDefault.NewDecoder(rr.Result().Body).Decode(&result)
		require.NoError(t, err)
		require.Len(t, result["completions"], 1)
		assert.Equal(t, 25, result["completions"][0].CoinsAwarded)

		rr = httptest.NewRecorder()
		r = httptest.NewRequest(http.MethodGet, "/users/me", nil)
		r = r.WithContext(context.WithValue(r.Context(), "User-ID", ownerID))
		serv.GetMe(rr, r)
		require.Equal(t, http.StatusOK, rr.Result().StatusCode)
		var resp api.MeResponse
		err = sonic.ConfigDefault.NewDecoder(rr.Result().Body).Decode(&resp)
		require.NoError(t, err)
		assert.Equal(t, int64(25), resp.Coins)
	})
}
