package service

import (
	"context"
	"errors"
	"log"
	"log/slog"

	"github.com/google/uuid"
	errorvalues "github.com/maqsadm/maqsadm/internal/error_values"
	"github.com/maqsadm/maqsadm/internal/repository"
	"github.com/maqsadm/maqsadm/pkg/entity"
)

type LeaderboardService struct {
	usersRepo repository.UsersRepositoryI
	cache     repository.LeaderboardCacheI
}

func NewLeaderboardService(usersRepo repository.UsersRepositoryI, cache repository.LeaderboardCacheI) *LeaderboardService {
	if usersRepo == nil {
		log.Fatal("on leaderboard service provided nil usersRepo")
	}
	return &LeaderboardService{
		usersRepo: usersRepo,
		cache:     cache,
	}
}

func (ls *LeaderboardService) Top(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	if ls.cache != nil {
		cached, err := ls.cache.GetTop(ctx)
		if err == nil && len(cached) >= limit {
			return cached[:limit], nil
		}
		if err != nil && !errors.Is(err, errorvalues.ErrCacheMiss) {
			slog.Warn("leaderboard cache read failed", slog.String("error", err.Error()))
		}
	}
	top, err := ls.usersRepo.TopByCoins(ctx, limit)
	if err != nil {
		return nil, errors.New("users repository error: " + err.Error())
	}
	if ls.cache != nil {
		if err := ls.cache.SetTop(ctx, top); err != nil {
			slog.Warn("leaderboard cache write failed", slog.String("error", err.Error()))
		}
	}
	return top, nil
}

func (ls *LeaderboardService) MyRank(ctx context.Context, userID uuid.UUID) (*entity.LeaderboardEntry, error) {
	if ls.cache != nil {
		rank, coins, err := ls.cache.Rank(ctx, userID)
		if err == nil {
			return &entity.LeaderboardEntry{
				UserID: userID,
				Coins:  coins,
				Rank:   rank,
			}, nil
		}
		if !errors.Is(err, errorvalues.ErrCacheMiss) {
			slog.Warn("leaderboard cache rank read failed", slog.String("error", err.Error()))
		}
	}
	entry, err := ls.usersRepo.RankByCoins(ctx, userID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return nil, err
		}
		return nil, errors.New("users repository error: " + err.Error())
	}
	if ls.cache != nil {
		if err := ls.cache.SetScore(ctx, userID, entry.Coins); err != nil {
			slog.Warn("leaderboard cache backfill failed", slog.String("error", err.Error()))
		}
	}
	return entry, nil
}
