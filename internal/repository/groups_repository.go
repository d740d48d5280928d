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

type GroupsRepository struct {
	conn PgConnection
}

func NewGroupsRepo(cfg DBConfig) *GroupsRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for groupsRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for groupsRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &GroupsRepository{
		conn: pool,
	}
}

func NewGroupsRepoWithConn(conn PgConnection) *GroupsRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for groupsRepo: " + err.Error())
	}
	return &GroupsRepository{
		conn: conn,
	}
}

// Create inserts the group and its creator membership in one transaction.
func (gr *GroupsRepository) Create(ctx context.Context, group *entity.Group) (uuid.UUID, error) {
	tx, err := gr.conn.Begin(ctx)
	if err != nil {
		return uuid.UUID{}, errors.New("starting create group tx error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	var id uuid.UUID
	row := tx.QueryRow(ctx, `INSERT INTO groups (name, creator_id) VALUES ($1, $2) RETURNING id;`,
		group.Name,
		group.CreatorID,
	)
	if err = row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// FK violation
			case "23503":
				return uuid.UUID{}, errorvalues.ErrUserNotFound
			}
		}
		return uuid.UUID{}, errors.New("creating group db error: " + err.Error())
	}
	_, err = tx.Exec(ctx, `INSERT INTO group_members (group_id, user_id) VALUES ($1, $2);`, id, group.CreatorID)
	if err != nil {
		return uuid.UUID{}, errors.New("adding creator membership error: " + err.Error())
	}
	if err = tx.Commit(ctx); err != nil {
		return uuid.UUID{}, errors.New("committing create group tx error: " + err.Error())
	}
	return id, nil
}

func (gr *GroupsRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Group, error) {
	var group entity.Group
	group.ID = id
	row := gr.conn.QueryRow(ctx, `SELECT name, creator_id, created_at FROM groups WHERE id = $1;`, id)
	if err := row.Scan(&group.Name, &group.CreatorID, &group.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrGroupNotFound
		}
		return nil, errors.New("getting group by id error: " + err.Error())
	}
	return &group, nil
}

func (gr *GroupsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := gr.conn.Exec(ctx, `DELETE FROM groups WHERE id = $1;`, id)
	if err != nil {
		return errors.New("deleting group error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrGroupNotFound
	}
	return nil
}

func (gr *GroupsRepository) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	_, err := gr.conn.Exec(ctx, `INSERT INTO group_members (group_id, user_id) VALUES ($1, $2);`, groupID, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// Unique violation
			case "23505":
				return errorvalues.ErrAlreadyMember
			// FK violation
			case "23503":
				return errorvalues.ErrGroupNotFound
			}
		}
		return errors.New("adding group member error: " + err.Error())
	}
	return nil
}

func (gr *GroupsRepository) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	ct, err := gr.conn.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2;`, groupID, userID)
	if err != nil {
		return errors.New("removing group member error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrNotGroupMember
	}
	return nil
}

func (gr *GroupsRepository) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var exists bool
	row := gr.conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2);`,
		groupID,
		userID,
	)
	if err := row.Scan(&exists); err != nil {
		return false, errors.New("inspecting membership error: " + err.Error())
	}
	return exists, nil
}

func (gr *GroupsRepository) GetMembers(ctx context.Context, groupID uuid.UUID) ([]entity.GroupMember, error) {
	rows, err := gr.conn.Query(ctx,
		`SELECT gm.group_id, gm.user_id, u.name, u.coins, gm.joined_at
		FROM group_members gm JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1 ORDER BY gm.joined_at ASC;`,
		groupID,
	)
	if err != nil {
		return nil, errors.New("getting group members error: " + err.Error())
	}
	defer rows.Close()
	result := make([]entity.GroupMember, 0, 4)
	for rows.Next() {
		var m entity.GroupMember
		if err = rows.Scan(&m.GroupID, &m.UserID, &m.Name, &m.Coins, &m.JoinedAt); err != nil {
			return nil, errors.New("member row parsing error: " + err.Error())
		}
		result = append(result, m)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected member rows error: " + rows.Err().Error())
	}
	return result, nil
}

func (gr *GroupsRepository) GetUserGroups(ctx context.Context, userID uuid.UUID) ([]*entity.Group, error) {
	rows, err := gr.conn.Query(ctx,
		`SELECT g.id, g.name, g.creator_id, g.created_at
		FROM groups g JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = $1 ORDER BY gm.joined_at ASC;`,
		userID,
	)
	if err != nil {
		return nil, errors.New("getting user groups error: " + err.Error())
	}
	defer rows.Close()
	groups := make([]*entity.Group, 0, 4)
	for rows.Next() {
		g := entity.Group{}
		if err = rows.Scan(&g.ID, &g.Name, &g.CreatorID, &g.CreatedAt); err != nil {
			return nil, errors.New("group row parsing error: " + err.Error())
		}
		groups = append(groups, &g)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected group rows error: " + rows.Err().Error())
	}
	return groups, nil
}
