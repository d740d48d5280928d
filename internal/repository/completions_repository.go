package repository

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	errorvalues "github.com/maqsadm/maqsadm/internal/error_values"
	"github.com/maqsadm/maqsadm/pkg/cleanup"
	"github.com/maqsadm/maqsadm/pkg/entity"
)

type CompletionsRepository struct {
	conn PgConnection
}

func NewCompletionsRepo(cfg DBConfig) *CompletionsRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for completionsRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for completionsRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &CompletionsRepository{
		conn: pool,
	}
}

func NewCompletionsRepoWithConn(conn PgConnection) *CompletionsRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for completionsRepo: " + err.Error())
	}
	return &CompletionsRepository{
		conn: conn,
	}
}

// Complete relies on the unique index on (user_id, task_id, completion_date):
// ON CONFLICT DO NOTHING turns a lost race into the already-completed path, so
// two near-simultaneous calls credit the coins exactly once. Record insert and
// balance credit sit in one transaction and are never observably split.
func (cr *CompletionsRepository) Complete(ctx context.Context, userID, taskID uuid.UUID, date time.Time, coins int) (*entity.CompletionRecord, int64, bool, error) {
	tx, err := cr.conn.Begin(ctx)
	if err != nil {
		return nil, 0, false, errors.New("starting completion tx error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	rec := entity.CompletionRecord{
		UserID:         userID,
		TaskID:         taskID,
		CompletionDate: date,
		CoinsAwarded:   coins,
	}
	row := tx.QueryRow(ctx,
		`INSERT INTO completions (user_id, task_id, completion_date, coins_awarded)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, task_id, completion_date) DO NOTHING
		RETURNING id, created_at;`,
		userID,
		taskID,
		date,
		coins,
	)
	err = row.Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, false, errors.New("inserting completion error: " + err.Error())
		}
		// Conflict: somebody (possibly a parallel request) got here first.
		// Return the existing record without touching the balance.
		existing, balance, err := cr.getExisting(ctx, userID, taskID, date)
		if err != nil {
			return nil, 0, false, err
		}
		return existing, balance, false, nil
	}
	var newBalance int64
	row = tx.QueryRow(ctx, `UPDATE users SET coins = coins + $1 WHERE id = $2 RETURNING coins;`, coins, userID)
	if err = row.Scan(&newBalance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, false, errorvalues.ErrUserNotFound
		}
		return nil, 0, false, errors.New("crediting balance error: " + err.Error())
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, 0, false, errors.New("committing completion tx error: " + err.Error())
	}
	return &rec, newBalance, true, nil
}

func (cr *CompletionsRepository) getExisting(ctx context.Context, userID, taskID uuid.UUID, date time.Time) (*entity.CompletionRecord, int64, error) {
	rec := entity.CompletionRecord{
		UserID:         userID,
		TaskID:         taskID,
		CompletionDate: date,
	}
	row := cr.conn.QueryRow(ctx,
		`SELECT id, coins_awarded, created_at FROM completions
		WHERE user_id = $1 AND task_id = $2 AND completion_date = $3;`,
		userID,
		taskID,
		date,
	)
	if err := row.Scan(&rec.ID, &rec.CoinsAwarded, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, errorvalues.ErrCompletionNotFound
		}
		return nil, 0, errors.New("getting existing completion error: " + err.Error())
	}
	var balance int64
	row = cr.conn.QueryRow(ctx, `SELECT coins FROM users WHERE id = $1;`, userID)
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, errorvalues.ErrUserNotFound
		}
		return nil, 0, errors.New("getting balance error: " + err.Error())
	}
	return &rec, balance, nil
}

func (cr *CompletionsRepository) Exists(ctx context.Context, userID, taskID uuid.UUID, date time.Time) (bool, error) {
	var exists bool
	row := cr.conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM completions WHERE user_id = $1 AND task_id = $2 AND completion_date = $3);`,
		userID,
		taskID,
		date,
	)
	if err := row.Scan(&exists); err != nil {
		return false, errors.New("inspecting if completion exists error: " + err.Error())
	}
	return exists, nil
}

func (cr *CompletionsRepository) GetByUserAndDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]entity.CompletionRecord, error) {
	rows, err := cr.conn.Query(ctx,
		`SELECT id, user_id, task_id, completion_date, coins_awarded, created_at FROM completions
		WHERE user_id = $1 AND completion_date >= $2 AND completion_date <= $3
		ORDER BY completion_date DESC, id DESC;`,
		userID,
		from,
		to,
	)
	if err != nil {
		return nil, errors.New("getting completions for period error: " + err.Error())
	}
	defer rows.Close()
	result := make([]entity.CompletionRecord, 0, 8)
	for rows.Next() {
		rec := entity.CompletionRecord{}
		err = rows.Scan(&rec.ID, &rec.UserID, &rec.TaskID, &rec.CompletionDate, &rec.CoinsAwarded, &rec.CreatedAt)
		if err != nil {
			return nil, errors.New("completion row parsing error: " + err.Error())
		}
		result = append(result, rec)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected completion rows error: " + rows.Err().Error())
	}
	return result, nil
}

func (cr *CompletionsRepository) CompletedTaskIDs(ctx context.Context, userID uuid.UUID, date time.Time) (map[uuid.UUID]bool, error) {
	rows, err := cr.conn.Query(ctx,
		`SELECT task_id FROM completions WHERE user_id = $1 AND completion_date = $2;`,
		userID,
		date,
	)
	if err != nil {
		return nil, errors.New("getting completed task ids error: " + err.Error())
	}
	defer rows.Close()
	result := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err = rows.Scan(&id); err != nil {
			return nil, errors.New("completed task id parsing error: " + err.Error())
		}
		result[id] = true
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected completed ids rows error: " + rows.Err().Error())
	}
	return result, nil
}
