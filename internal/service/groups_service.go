package service

import (
	"context"
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	errorvalues "github.com/maqsadm/maqsadm/internal/error_values"
	"github.com/maqsadm/maqsadm/internal/repository"
	"github.com/maqsadm/maqsadm/pkg/entity"
)

type GroupsService struct {
	repo repository.GroupsRepositoryI
}

func NewGroupsService(groupsRepo repository.GroupsRepositoryI) *GroupsService {
	if groupsRepo == nil {
		log.Fatal("provided nil groupsRepo")
	}
	return &GroupsService{
		repo: groupsRepo,
	}
}

func (gs *GroupsService) CreateGroup(ctx context.Context, creatorID uuid.UUID, req *CreateGroupRequest) (*entity.Group, error) {
	err := validate.Struct(*req)
	if err != nil {
		if validationError, ok := err.(validator.ValidationErrors); ok {
			err = errors.New("validation error: ")
			for _, fieldErr := range validationError {
				err = errors.Join(err, fieldErr)
			}
			return nil, err
		}
		return nil, errors.New("validation unexpected error: " + err.Error())
	}
	g := entity.Group{
		Name:      req.Name,
		CreatorID: creatorID,
	}
	id, err := gs.repo.Create(ctx, &g)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return nil, err
		}
		return nil, errors.New("groups repository error: " + err.Error())
	}
	group, err := gs.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrGroupNotFound) {
			return nil, err
		}
		return nil, errors.New("groups repository error: " + err.Error())
	}
	return group, nil
}

func (gs *GroupsService) JoinGroup(ctx context.Context, groupID, userID uuid.UUID) error {
	err := gs.repo.AddMember(ctx, groupID, userID)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrAlreadyMember), errors.Is(err, errorvalues.ErrGroupNotFound):
			return err
		}
		return errors.New("groups repository error: " + err.Error())
	}
	return nil
}

func (gs *GroupsService) LeaveGroup(ctx context.Context, groupID, userID uuid.UUID) error {
	group, err := gs.repo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrGroupNotFound) {
			return err
		}
		return errors.New("groups repository error: " + err.Error())
	}
	// Creator leaving would orphan the group
	if group.CreatorID == userID {
		return errorvalues.ErrNotGroupOwner
	}
	err = gs.repo.RemoveMember(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrNotGroupMember) {
			return err
		}
		return errors.New("groups repository error: " + err.Error())
	}
	return nil
}

func (gs *GroupsService) DeleteGroup(ctx context.Context, groupID, userID uuid.UUID) error {
	group, err := gs.repo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrGroupNotFound) {
			return err
		}
		return errors.New("groups repository error: " + err.Error())
	}
	if group.CreatorID != userID {
		return errorvalues.ErrNotGroupOwner
	}
	err = gs.repo.Delete(ctx, groupID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrGroupNotFound) {
			return err
		}
		return errors.New("groups repository error: " + err.Error())
	}
	return nil
}

func (gs *GroupsService) UserGroups(ctx context.Context, userID uuid.UUID) ([]*entity.Group, error) {
	groups, err := gs.repo.GetUserGroups(ctx, userID)
	if err != nil {
		return nil, errors.New("groups repository error: " + err.Error())
	}
	return groups, nil
}

func (gs *GroupsService) GroupMembers(ctx context.Context, groupID, requesterID uuid.UUID) ([]entity.GroupMember, error) {
	isMember, err := gs.repo.IsMember(ctx, groupID, requesterID)
	if err != nil {
		return nil, errors.New("groups repository error: " + err.Error())
	}
	if !isMember {
		return nil, errorvalues.ErrNotGroupMember
	}
	members, err := gs.repo.GetMembers(ctx, groupID)
	if err != nil {
		return nil, errors.New("groups repository error: " + err.Error())
	}
	return members, nil
}
