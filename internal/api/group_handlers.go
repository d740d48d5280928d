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
	"github.com/maqsadm/maqsadm/pkg/httputil"
)

type CreateGroupRequest struct {
	Name string `json:"name"`
}

func groupIDFromURL(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue("id"))
}

func (s *Server) CreateGroup(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("group creation error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req CreateGroupRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("group creation error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	group, err := s.groupsService.CreateGroup(ctx, uid, &service.CreateGroupRequest{Name: req.Name})
	if err != nil {
		logger.Error("group creation error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while creating group", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, group)
	logger.Info("group created", slog.String("group_id", group.ID.String()))
}

func (s *Server) MyGroups(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("groups listing error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	groups, err := s.groupsService.UserGroups(ctx, uid)
	if err != nil {
		logger.Error("groups listing error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while listing groups", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"groups": groups})
	logger.Info("groups provided")
}

func (s *Server) JoinGroup(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("group join error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	groupID, err := groupIDFromURL(r)
	if err != nil {
		logger.Error("group join error: invalid group id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid group id", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err = s.groupsService.JoinGroup(ctx, groupID, uid)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrGroupNotFound):
			logger.Error("group join error: unexist group")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "group doesn't exist", nil)
		case errors.Is(err, errorvalues.ErrAlreadyMember):
			logger.Error("group join error: already a member")
			httputil.WriteErrorResponse(w, http.StatusConflict, "already a member of this group", nil)
		default:
			logger.Error("group join error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while joining group", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"group_id": groupID.String()})
	logger.Info("joined group", slog.String("group_id", groupID.String()))
}

func (s *Server) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("group leave error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	groupID, err := groupIDFromURL(r)
	if err != nil {
		logger.Error("group leave error: invalid group id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid group id", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err = s.groupsService.LeaveGroup(ctx, groupID, uid)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrGroupNotFound):
			logger.Error("group leave error: unexist group")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "group doesn't exist", nil)
		case errors.Is(err, errorvalues.ErrNotGroupMember):
			logger.Error("group leave error: not a member")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "not a member of this group", nil)
		case errors.Is(err, errorvalues.ErrNotGroupOwner):
			logger.Error("group leave error: creator can't leave")
			httputil.WriteErrorResponse(w, http.StatusConflict, "creator can't leave own group, delete it instead", nil)
		default:
			logger.Error("group leave error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while leaving group", nil)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
	logger.Info("left group", slog.String("group_id", groupID.String()))
}

func (s *Server) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("group deletion error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	groupID, err := groupIDFromURL(r)
	if err != nil {
		logger.Error("group deletion error: invalid group id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid group id", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err = s.groupsService.DeleteGroup(ctx, groupID, uid)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrGroupNotFound):
			logger.Error("group deletion error: unexist group")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "group doesn't exist", nil)
		case errors.Is(err, errorvalues.ErrNotGroupOwner):
			logger.Error("group deletion error: not the creator")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "only the creator can delete a group", nil)
		default:
			logger.Error("group deletion error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while deleting group", nil)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
	logger.Info("group deleted", slog.String("group_id", groupID.String()))
}

func (s *Server) GroupMembers(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("members listing error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	groupID, err := groupIDFromURL(r)
	if err != nil {
		logger.Error("members listing error: invalid group id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid group id", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	members, err := s.groupsService.GroupMembers(ctx, groupID, uid)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrGroupNotFound):
			logger.Error("members listing error: unexist group")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "group doesn't exist", nil)
		case errors.Is(err, errorvalues.ErrNotGroupMember):
			logger.Error("members listing error: not a member")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "members list is for members only", nil)
		default:
			logger.Error("members listing error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while listing members", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"members": members})
	logger.Info("members provided", slog.String("group_id", groupID.String()))
}
