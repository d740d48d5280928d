package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	errorvalues "github.com/maqsadm/maqsadm/internal/error_values"
	"github.com/maqsadm/maqsadm/internal/repository"
	"github.com/maqsadm/maqsadm/pkg/entity"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	insertCompletionQuery = regexp.QuoteMeta(`INSERT INTO completions (user_id, task_id, completion_date, coins_awarded)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, task_id, completion_date) DO NOTHING
			RETURNING id, created_at;`)
	creditBalanceQuery  = regexp.QuoteMeta(`UPDATE users SET coins = coins + $1 WHERE id = $2 RETURNING coins;`)
	existingRecordQuery = regexp.QuoteMeta(`SELECT id, coins_awarded, created_at FROM completions
			WHERE user_id = $1 AND task_id = $2 AND completion_date = $3;`)
	balanceQuery = regexp.QuoteMeta(`SELECT coins FROM users WHERE id = $1;`)
)

func TestComplete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	completionsRepo := repository.NewCompletionsRepoWithConn(mock)
	userID := uuid.New()
	taskID := uuid.New()
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	createdAt := time.Now()
	coins := 25
	testCases := []struct {
		Desc          string
		Error         error
		Created       bool
		BalanceResult int64
		MockPrepFunc  func()
	}{
		{
			Desc:          "successful first completion",
			Error:         nil,
			Created:       true,
			BalanceResult: 125,
			MockPrepFunc: func() {
				mock.ExpectBegin()
				mock.ExpectQuery(insertCompletionQuery).
					WithArgs(userID, taskID, date, coins).
					WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), createdAt))
				mock.ExpectQuery(creditBalanceQuery).
					WithArgs(coins, userID).
					WillReturnRows(pgxmock.NewRows([]string{"coins"}).AddRow(int64(125)))
				mock.ExpectCommit()
				mock.ExpectRollback()
			},
		},
		{
			Desc:          "repeated completion: conflict path",
			Error:         nil,
			Created:       false,
			BalanceResult: 100,
			MockPrepFunc: func() {
				mock.ExpectBegin()
				mock.ExpectQuery(insertCompletionQuery).
					WithArgs(userID, taskID, date, coins).
					WillReturnError(pgx.ErrNoRows)
				mock.ExpectQuery(existingRecordQuery).
					WithArgs(userID, taskID, date).
					WillReturnRows(pgxmock.NewRows([]string{"id", "coins_awarded", "created_at"}).AddRow(int64(1), coins, createdAt))
				mock.ExpectQuery(balanceQuery).
					WithArgs(userID).
					WillReturnRows(pgxmock.NewRows([]string{"coins"}).AddRow(int64(100)))
				mock.ExpectRollback()
			},
		},
		{
			Desc:  "insert db error",
			Error: errors.New("inserting completion error: db error"),
			MockPrepFunc: func() {
				mock.ExpectBegin()
				mock.ExpectQuery(insertCompletionQuery).
					WithArgs(userID, taskID, date, coins).
					WillReturnError(errors.New("db error"))
				mock.ExpectRollback()
			},
		},
		{
			Desc:  "crediting missing user",
			Error: errorvalues.ErrUserNotFound,
			MockPrepFunc: func() {
				mock.ExpectBegin()
				mock.ExpectQuery(insertCompletionQuery).
					WithArgs(userID, taskID, date, coins).
					WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), createdAt))
				mock.ExpectQuery(creditBalanceQuery).
					WithArgs(coins, userID).
					WillReturnError(pgx.ErrNoRows)
				mock.ExpectRollback()
			},
		},
		{
			Desc:  "commit error",
			Error: errors.New("committing completion tx error: commit failed"),
			MockPrepFunc: func() {
				mock.ExpectBegin()
				mock.ExpectQuery(insertCompletionQuery).
					WithArgs(userID, taskID, date, coins).
					WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), createdAt))
				mock.ExpectQuery(creditBalanceQuery).
					WithArgs(coins, userID).
					WillReturnRows(pgxmock.NewRows([]string{"coins"}).AddRow(int64(125)))
				mock.ExpectCommit().WillReturnError(errors.New("commit failed"))
				mock.ExpectRollback()
			},
		},
	}
	ctx := context.Background()
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			tc.MockPrepFunc()
			rec, balance, created, err := completionsRepo.Complete(ctx, userID, taskID, date, coins)
			if tc.Error != nil {
				assert.EqualError(t, err, tc.Error.Error())
				return
			}
			assert.NoError(t, err)
			require.NotNil(t, rec)
			assert.Equal(t, tc.Created, created)
			assert.Equal(t, tc.BalanceResult, balance)
			assert.Equal(t, userID, rec.UserID)
			assert.Equal(t, taskID, rec.TaskID)
			assert.Equal(t, coins, rec.CoinsAwarded)
		})
	}
}

func TestExistsCompletion(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	completionsRepo := repository.NewCompletionsRepoWithConn(mock)
	query := regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM completions WHERE user_id = $1 AND task_id = $2 AND completion_date = $3);`)
	userID := uuid.New()
	taskID := uuid.New()
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	testCases := []struct {
		Desc          string
		Error         error
		IsExistResult bool
		MockPrepFunc  func()
	}{
		{
			Desc:  "successful: exists",
			Error: nil,
			MockPrepFunc: func() {
				mock.ExpectQuery(query).
					WithArgs(userID, taskID, date).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
			},
			IsExistResult: true,
		},
		{
			Desc:  "successful: doesn't exist",
			Error: nil,
			MockPrepFunc: func() {
				mock.ExpectQuery(query).
					WithArgs(userID, taskID, date).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
			},
			IsExistResult: false,
		},
		{
			Desc:  "db error",
			Error: errors.New("inspecting if completion exists error: db error"),
			MockPrepFunc: func() {
				mock.ExpectQuery(query).
					WithArgs(userID, taskID, date).
					WillReturnError(errors.New("db error"))
			},
		},
	}
	ctx := context.Background()
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			tc.MockPrepFunc()
			exists, err := completionsRepo.Exists(ctx, userID, taskID, date)
			if tc.Error != nil {
				assert.EqualError(t, err, tc.Error.Error())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.IsExistResult, exists)
			}
		})
	}
}

func TestGetByUserAndDateRange(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	completionsRepo := repository.NewCompletionsRepoWithConn(mock)
	query := regexp.QuoteMeta(`SELECT id, user_id, task_id, completion_date, coins_awarded, created_at FROM completions
			WHERE user_id = $1 AND completion_date >= $2 AND completion_date <= $3
			ORDER BY completion_date DESC, id DESC;`)
	userID := uuid.New()
	taskID := uuid.New()
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	returnedRecords := []entity.CompletionRecord{
		{
			ID:             2,
			UserID:         userID,
			TaskID:         taskID,
			CompletionDate: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
			CoinsAwarded:   25,
			CreatedAt:      time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:             1,
			UserID:         userID,
			TaskID:         taskID,
			CompletionDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			CoinsAwarded:   25,
			CreatedAt:      time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		},
	}
	testCases := []struct {
		Desc          string
		Error         error
		RecordsResult []entity.CompletionRecord
		MockPrepFunc  func()
	}{
		{
			Desc:          "success",
			Error:         nil,
			RecordsResult: returnedRecords,
			MockPrepFunc: func() {
				rows := pgxmock.NewRows([]string{"id", "user_id", "task_id", "completion_date", "coins_awarded", "created_at"})
				for _, rec := range returnedRecords {
					rows.AddRow(rec.ID, rec.UserID, rec.TaskID, rec.CompletionDate, rec.CoinsAwarded, rec.CreatedAt)
				}
				mock.ExpectQuery(query).
					WithArgs(userID, from, to).
					WillReturnRows(rows)
			},
		},
		{
			Desc:          "db error",
			Error:         errors.New("getting completions for period error: db error"),
			RecordsResult: nil,
			MockPrepFunc: func() {
				mock.ExpectQuery(query).
					WithArgs(userID, from, to).
					WillReturnError(errors.New("db error"))
			},
		},
	}
	ctx := context.Background()
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			tc.MockPrepFunc()
			result, err := completionsRepo.GetByUserAndDateRange(ctx, userID, from, to)
			if tc.Error != nil {
				assert.EqualError(t, err, tc.Error.Error())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.RecordsResult, result)
			}
		})
	}
}

func TestCompletedTaskIDs(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	completionsRepo := repository.NewCompletionsRepoWithConn(mock)
	query := regexp.QuoteMeta(`SELECT task_id FROM completions WHERE user_id = $1 AND completion_date = $2;`)
	userID := uuid.New()
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	firstTask := uuid.New()
	secondTask := uuid.New()
	testCases := []struct {
		Desc         string
		Error        error
		IDsResult    map[uuid.UUID]bool
		MockPrepFunc func()
	}{
		{
			Desc:      "success",
			Error:     nil,
			IDsResult: map[uuid.UUID]bool{firstTask: true, secondTask: true},
			MockPrepFunc: func() {
				mock.ExpectQuery(query).
					WithArgs(userID, date).
					WillReturnRows(pgxmock.NewRows([]string{"task_id"}).AddRow(firstTask).AddRow(secondTask))
			},
		},
		{
			Desc:      "success: nothing completed",
			Error:     nil,
			IDsResult: map[uuid.UUID]bool{},
			MockPrepFunc: func() {
				mock.ExpectQuery(query).
					WithArgs(userID, date).
					WillReturnRows(pgxmock.NewRows([]string{"task_id"}))
			},
		},
		{
			Desc:  "db error",
			Error: errors.New("getting completed task ids error: db error"),
			MockPrepFunc: func() {
				mock.ExpectQuery(query).
					WithArgs(userID, date).
					WillReturnError(errors.New("db error"))
			},
		},
	}
	ctx := context.Background()
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			tc.MockPrepFunc()
			result, err := completionsRepo.CompletedTaskIDs(ctx, userID, date)
			if tc.Error != nil {
				assert.EqualError(t, err, tc.Error.Error())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.IDsResult, result)
			}
		})
	}
}
