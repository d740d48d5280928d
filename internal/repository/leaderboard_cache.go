package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	errorvalues "github.com/maqsadm/maqsadm/internal/error_values"
	"github.com/maqsadm/maqsadm/pkg/cleanup"
	"github.com/maqsadm/maqsadm/pkg/entity"
)

const (
	leaderboardKey    = "maqsadm:leaderboard"
	leaderboardTopKey = "maqsadm:leaderboard:top"
	topTTL            = 30 * time.Second
)

// LeaderboardCache keeps coin balances in a redis sorted set for cheap rank
// lookups. It is a cache only, postgres keeps the authoritative balances.
type LeaderboardCache struct {
	client *redis.Client
}

type RedisCfg struct {
	Address  string
	Password string
	DB       int
}

func NewLeaderboardCache(cfg *RedisCfg) *LeaderboardCache {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	cleanup.Register(&cleanup.Job{
		Name: "closing redis client",
		F:    client.Close,
	})
	return &LeaderboardCache{
		client: client,
	}
}

func NewLeaderboardCacheWithClient(client *redis.Client) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
	}
}

func (lc *LeaderboardCache) SetScore(ctx context.Context, userID uuid.UUID, coins int64) error {
	err := lc.client.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(coins),
		Member: userID.String(),
	}).Err()
	if err != nil {
		return errors.New("writing leaderboard score error: " + err.Error())
	}
	// Top list is stale now, drop it early instead of waiting out the TTL.
	lc.client.Del(ctx, leaderboardTopKey)
	return nil
}

// Rank is 1 + the number of strictly higher balances, so equal balances share
// a rank, same rule as the SQL fallback.
func (lc *LeaderboardCache) Rank(ctx context.Context, userID uuid.UUID) (int64, int64, error) {
	member := userID.String()
	score, err := lc.client.ZScore(ctx, leaderboardKey, member).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, 0, errorvalues.ErrCacheMiss
		}
		return 0, 0, errors.New("reading leaderboard score error: " + err.Error())
	}
	higher, err := lc.client.ZCount(ctx, leaderboardKey, "("+strconv.FormatInt(int64(score), 10), "+inf").Result()
	if err != nil {
		return 0, 0, errors.New("reading leaderboard rank error: " + err.Error())
	}
	return higher + 1, int64(score), nil
}

func (lc *LeaderboardCache) SetTop(ctx context.Context, entries []entity.LeaderboardEntry) error {
	data, err := sonic.Marshal(entries)
	if err != nil {
		return errors.New("marshalling top list error: " + err.Error())
	}
	if err = lc.client.Set(ctx, leaderboardTopKey, data, topTTL).Err(); err != nil {
		return errors.New("caching top list error: " + err.Error())
	}
	return nil
}

func (lc *LeaderboardCache) GetTop(ctx context.Context) ([]entity.LeaderboardEntry, error) {
	data, err := lc.client.Get(ctx, leaderboardTopKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errorvalues.ErrCacheMiss
		}
		return nil, errors.New("reading cached top list error: " + err.Error())
	}
	var entries []entity.LeaderboardEntry
	if err = sonic.Unmarshal(data, &entries); err != nil {
		return nil, errors.New("unmarshalling top list error: " + err.Error())
	}
	return entries, nil
}

func (lc *LeaderboardCache) Rebuild(ctx context.Context, entries []entity.LeaderboardEntry) error {
	members := make([]redis.Z, 0, len(entries))
	for _, e := range entries {
		members = append(members, redis.Z{
			Score:  float64(e.Coins),
			Member: e.UserID.String(),
		})
	}
	pipe := lc.client.TxPipeline()
	pipe.Del(ctx, leaderboardKey)
	if len(members) > 0 {
		pipe.ZAdd(ctx, leaderboardKey, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.New("rebuilding leaderboard error: " + err.Error())
	}
	return nil
}
