package repository

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	errorvalues "github.com/maqsadm/maqsadm/internal/error_values"
	"github.com/maqsadm/maqsadm/pkg/cleanup"
	"github.com/maqsadm/maqsadm/pkg/entity"
)

type TasksRepository struct {
	conn PgConnection
}

func NewTasksRepo(cfg DBConfig) *TasksRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for tasksRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for tasksRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &TasksRepository{
		conn: pool,
	}
}

func NewTasksRepoWithConn(conn PgConnection) *TasksRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for tasksRepo: " + err.Error())
	}
	return &TasksRepository{
		conn: conn,
	}
}

const taskColumns = `id, scope, owner_id, group_id, title, description, coins, schedule_kind, schedule_date, schedule_days, created_at`

func (tr *TasksRepository) Create(ctx context.Context, task *entity.Task) (uuid.UUID, error) {
	var ownerID, groupID *uuid.UUID
	switch task.Scope {
	case entity.ScopePersonal:
		ownerID = &task.OwnerID
	case entity.ScopeGroup:
		groupID = &task.GroupID
	default:
		return uuid.UUID{}, errors.New("unknown task scope: " + string(task.Scope))
	}
	var scheduleDate *time.Time
	if task.Schedule.Kind == entity.ScheduleOneTime {
		scheduleDate = &task.Schedule.Date
	}
	var id uuid.UUID
	row := tr.conn.QueryRow(ctx,
		`INSERT INTO tasks (scope, owner_id, group_id, title, description, coins, schedule_kind, schedule_date, schedule_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id;`,
		task.Scope,
		ownerID,
		groupID,
		task.Title,
		task.Description,
		task.Coins,
		task.Schedule.Kind,
		scheduleDate,
		int16(task.Schedule.Days),
	)
	if err := row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// FK violation
			case "23503":
				if task.Scope == entity.ScopeGroup {
					return uuid.UUID{}, errorvalues.ErrGroupNotFound
				}
				return uuid.UUID{}, errorvalues.ErrOwnerNotFound
			}
		}
		return uuid.UUID{}, errors.New("creating task db error: " + err.Error())
	}
	return id, nil
}

func (tr *TasksRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	row := tr.conn.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1;`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrTaskNotFound
		}
		return nil, errors.New("getting task by id error: " + err.Error())
	}
	return task, nil
}

func (tr *TasksRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Task, error) {
	rows, err := tr.conn.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE owner_id = $1 ORDER BY created_at ASC;`, ownerID)
	if err != nil {
		return nil, errors.New("getting tasks by owner error: " + err.Error())
	}
	return collectTasks(rows)
}

func (tr *TasksRepository) GetByGroup(ctx context.Context, groupID uuid.UUID) ([]*entity.Task, error) {
	rows, err := tr.conn.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE group_id = $1 ORDER BY created_at ASC;`, groupID)
	if err != nil {
		return nil, errors.New("getting tasks by group error: " + err.Error())
	}
	return collectTasks(rows)
}

func (tr *TasksRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := tr.conn.Exec(ctx, `DELETE FROM tasks WHERE id = $1;`, id)
	if err != nil {
		return errors.New("deleting task error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrTaskNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (*entity.Task, error) {
	var (
		task         entity.Task
		ownerID      *uuid.UUID
		groupID      *uuid.UUID
		scheduleDate *time.Time
		days         int16
	)
	err := row.Scan(&task.ID, &task.Scope, &ownerID, &groupID, &task.Title, &task.Description,
		&task.Coins, &task.Schedule.Kind, &scheduleDate, &days, &task.CreatedAt)
	if err != nil {
		return nil, err
	}
	if ownerID != nil {
		task.OwnerID = *ownerID
	}
	if groupID != nil {
		task.GroupID = *groupID
	}
	if scheduleDate != nil {
		task.Schedule.Date = *scheduleDate
	}
	task.Schedule.Days = entity.Weekdays(days)
	return &task, nil
}

func collectTasks(rows pgx.Rows) ([]*entity.Task, error) {
	defer rows.Close()
	tasks := make([]*entity.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, errors.New("task row parsing error: " + err.Error())
		}
		tasks = append(tasks, task)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected task rows error: " + rows.Err().Error())
	}
	return tasks, nil
}
