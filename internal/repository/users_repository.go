package repository

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	errorvalues "github.com/maqsadm/maqsadm/internal/error_values"
	"github.com/maqsadm/maqsadm/pkg/cleanup"
	"github.com/maqsadm/maqsadm/pkg/entity"
)

type UsersRepository struct {
	conn PgConnection
}

func NewUsersRepo(cfg DBConfig) *UsersRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for usersRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for usersRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &UsersRepository{
		conn: pool,
	}
}

func NewUsersRepoWithConn(conn PgConnection) *UsersRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for usersRepo: " + err.Error())
	}
	return &UsersRepository{
		conn: conn,
	}
}

func (ur *UsersRepository) Create(ctx context.Context, user *entity.User) error {
	if user == nil {
		return errors.New("user is nil")
	}
	_, err := ur.conn.Exec(ctx, `INSERT INTO users (name, password_hash, goals) VALUES ($1, $2, $3);`,
		user.Name,
		user.PasswordHash,
		user.Goals,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// Unique violation
			case "23505":
				return errorvalues.ErrUserExists
			}
		}
		return errors.New("creating user db error: " + err.Error())
	}
	return nil
}

func (ur *UsersRepository) FindByName(ctx context.Context, name string) (*entity.User, error) {
	var user entity.User
	row := ur.conn.QueryRow(ctx, `SELECT id, name, password_hash, goals, coins FROM users WHERE name = $1;`, name)
	if err := row.Scan(&user.ID, &user.Name, &user.PasswordHash, &user.Goals, &user.Coins); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrUserNotFound
		}
		return nil, errors.New("searching user by name error: " + err.Error())
	}
	return &user, nil
}

func (ur *UsersRepository) FindByID(ctx context.Context, uid uuid.UUID) (*entity.User, error) {
	var user entity.User
	row := ur.conn.QueryRow(ctx, `SELECT id, name, password_hash, goals, coins FROM users WHERE id = $1;`, uid)
	if err := row.Scan(&user.ID, &user.Name, &user.PasswordHash, &user.Goals, &user.Coins); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrUserNotFound
		}
		return nil, errors.New("searching user by id error: " + err.Error())
	}
	return &user, nil
}

func (ur *UsersRepository) UpdateGoals(ctx context.Context, uid uuid.UUID, goals string) error {
	ct, err := ur.conn.Exec(ctx, `UPDATE users SET goals = $1, updated_at = NOW() WHERE id = $2;`, goals, uid)
	if err != nil {
		return errors.New("updating user goals error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrUserNotFound
	}
	return nil
}

func (ur *UsersRepository) Delete(ctx context.Context, uid uuid.UUID) error {
	ct, err := ur.conn.Exec(ctx, `DELETE FROM users WHERE id = $1;`, uid)
	if err != nil {
		return errors.New("deleting user db error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrUserNotFound
	}
	return nil
}

func (ur *UsersRepository) TopByCoins(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error) {
	rows, err := ur.conn.Query(ctx, `SELECT id, name, coins FROM users ORDER BY coins DESC, name ASC LIMIT $1;`, limit)
	if err != nil {
		return nil, errors.New("getting top users error: " + err.Error())
	}
	defer rows.Close()
	result := make([]entity.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e entity.LeaderboardEntry
		if err = rows.Scan(&e.UserID, &e.Name, &e.Coins); err != nil {
			return nil, errors.New("top user row parsing error: " + err.Error())
		}
		e.Rank = int64(len(result) + 1)
		result = append(result, e)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected top users rows error: " + rows.Err().Error())
	}
	return result, nil
}

func (ur *UsersRepository) RankByCoins(ctx context.Context, uid uuid.UUID) (*entity.LeaderboardEntry, error) {
	var e entity.LeaderboardEntry
	row := ur.conn.QueryRow(ctx, `SELECT id, name, coins,
		(SELECT COUNT(*) + 1 FROM users o WHERE o.coins > u.coins) AS rank
		FROM users u WHERE id = $1;`, uid)
	if err := row.Scan(&e.UserID, &e.Name, &e.Coins, &e.Rank); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrUserNotFound
		}
		return nil, errors.New("getting user rank error: " + err.Error())
	}
	return &e, nil
}
