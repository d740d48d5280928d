package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/maqsadm/maqsadm/internal/ai"
	errorvalues "github.com/maqsadm/maqsadm/internal/error_values"
	"github.com/maqsadm/maqsadm/pkg/httputil"
)

// AI provider calls are slow, these handlers get a wider timeout than the
// regular CRUD ones.
const aiHandlerTimeout = time.Second * 60

type AnalysisRequest struct {
	Lang string `json:"lang"`
	Days int    `json:"days"`
}

type ConversationRequest struct {
	Lang     string       `json:"lang"`
	Messages []ai.Message `json:"messages"`
}

func (s *Server) Leaderboard(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			logger.Error("leaderboard error: invalid limit")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid limit", nil)
			return
		}
		limit = parsed
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	entries, err := s.leaderboardService.Top(ctx, limit)
	if err != nil {
		logger.Error("leaderboard error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting leaderboard", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"leaderboard": entries})
	logger.Info("leaderboard provided", slog.Int("count", len(entries)))
}

func (s *Server) MyRank(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("rank error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	entry, err := s.leaderboardService.MyRank(ctx, uid)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			logger.Error("rank error: unexist user")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "user doesn't exist", nil)
			return
		}
		logger.Error("rank error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting rank", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, entry)
	logger.Info("rank provided")
}

func (s *Server) Analysis(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("analysis error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req AnalysisRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("analysis error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.Days <= 0 || req.Days > 90 {
		req.Days = 30
	}
	ctx, cancel := context.WithTimeout(context.Background(), aiHandlerTimeout)
	defer cancel()
	user, err := s.userService.GetByID(ctx, uid)
	if err != nil {
		logger.Error("analysis error: getting user error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting profile", nil)
		return
	}
	now := time.Now()
	records, err := s.completionsService.History(ctx, uid, now.AddDate(0, 0, -req.Days), now)
	if err != nil {
		logger.Error("analysis error: getting history error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting history", nil)
		return
	}
	text, err := s.assistant.Analyze(ctx, user, records, req.Lang)
	if err != nil {
		logger.Error("analysis error: model error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadGateway, "ai provider unavailable", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"analysis": text})
	logger.Info("analysis provided")
}

func (s *Server) AssistantFlow(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("assistant error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req ConversationRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("assistant error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if len(req.Messages) == 0 {
		logger.Error("assistant error: empty transcript")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "messages must not be empty", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), aiHandlerTimeout)
	defer cancel()
	result, err := s.assistant.TaskFlow(ctx, uid, req.Messages, req.Lang)
	if err != nil {
		logger.Error("assistant error: model error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadGateway, "ai provider unavailable", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, result)
	logger.Info("assistant turn handled", slog.String("state", string(result.State)))
}

func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("chat error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req ConversationRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("chat error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if len(req.Messages) == 0 {
		logger.Error("chat error: empty transcript")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "messages must not be empty", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), aiHandlerTimeout)
	defer cancel()
	reply, err := s.assistant.Chat(ctx, uid, req.Messages, req.Lang)
	if err != nil {
		logger.Error("chat error: model error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadGateway, "ai provider unavailable", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"reply": reply})
	logger.Info("chat turn handled")
}
