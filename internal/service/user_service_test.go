package service_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	errorvalues "github.com/maqsadm/maqsadm/internal/error_values"
	"github.com/maqsadm/maqsadm/internal/repository/mocks"
	"github.com/maqsadm/maqsadm/internal/service"
	"github.com/maqsadm/maqsadm/pkg/entity"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestRegister(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	usersRepo := mocks.NewMockUsersRepositoryI(ctrl)

	serv := service.NewUserService(usersRepo)
	uid := uuid.New()
	testCases := []struct {
		Desc         string
		Error        error
		WantErr      bool
		Request      *service.RegisterRequest
		MockPrepFunc func()
	}{
		{
			Desc:  "success",
			Error: nil,
			Request: &service.RegisterRequest{
				Name:     "test_user",
				Password: "qwerty123",
			},
			MockPrepFunc: func() {
				usersRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
				usersRepo.EXPECT().FindByName(gomock.Any(), "test_user").Return(&entity.User{
					ID:   uid,
					Name: "test_user",
				}, nil)
			},
		},
		{
			Desc:  "error existed user",
			Error: errorvalues.ErrUserExists,
			Request: &service.RegisterRequest{
				Name:     "test_user",
				Password: "qwerty123",
			},
			MockPrepFunc: func() {
				usersRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errorvalues.ErrUserExists)
			},
		},
		{
			Desc:    "error too short password",
			WantErr: true,
			Request: &service.RegisterRequest{
				Name:     "test_user",
				Password: "123",
			},
			MockPrepFunc: func() {},
		},
		{
			Desc:    "error invalid name characters",
			WantErr: true,
			Request: &service.RegisterRequest{
				Name:     "test user!",
				Password: "qwerty123",
			},
			MockPrepFunc: func() {},
		},
	}
	ctx := context.Background()
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			tc.MockPrepFunc()
			user, err := serv.Register(ctx, tc.Request)
			switch {
			case tc.Error != nil:
				assert.ErrorIs(t, err, tc.Error)
			case tc.WantErr:
				assert.Error(t, err)
				assert.Nil(t, user)
			default:
				assert.NoError(t, err)
				assert.Equal(t, uid, user.ID)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	usersRepo := mocks.NewMockUsersRepositoryI(ctrl)

	serv := service.NewUserService(usersRepo)
	uid := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("qwerty123"), bcrypt.MinCost)
	assert.NoError(t, err)
	storedUser := &entity.User{
		ID:           uid,
		Name:         "test_user",
		PasswordHash: string(hash),
	}
	testCases := []struct {
		Desc         string
		Error        error
		Password     string
		MockPrepFunc func()
	}{
		{
			Desc:     "success",
			Error:    nil,
			Password: "qwerty123",
			MockPrepFunc: func() {
				usersRepo.EXPECT().FindByName(gomock.Any(), "test_user").Return(storedUser, nil)
			},
		},
		{
			Desc:     "error wrong password",
			Error:    errorvalues.ErrWrongCredentials,
			Password: "hunter2hunter2",
			MockPrepFunc: func() {
				usersRepo.EXPECT().FindByName(gomock.Any(), "test_user").Return(storedUser, nil)
			},
		},
		{
			Desc:     "error unexist user",
			Error:    errorvalues.ErrUserNotFound,
			Password: "qwerty123",
			MockPrepFunc: func() {
				usersRepo.EXPECT().FindByName(gomock.Any(), "test_user").Return(nil, errorvalues.ErrUserNotFound)
			},
		},
	}
	ctx := context.Background()
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			tc.MockPrepFunc()
			user, err := serv.Login(ctx, "test_user", tc.Password)
			if tc.Error != nil {
				assert.ErrorIs(t, err, tc.Error)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, uid, user.ID)
			}
		})
	}
}

func TestUpdateGoals(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	usersRepo := mocks.NewMockUsersRepositoryI(ctrl)

	serv := service.NewUserService(usersRepo)
	uid := uuid.New()

	t.Run("success", func(t *testing.T) {
		usersRepo.EXPECT().UpdateGoals(gomock.Any(), uid, "run every morning").Return(nil)
		assert.NoError(t, serv.UpdateGoals(context.Background(), uid, "run every morning"))
	})

	t.Run("error unexist user", func(t *testing.T) {
		usersRepo.EXPECT().UpdateGoals(gomock.Any(), uid, "run every morning").Return(errorvalues.ErrUserNotFound)
		assert.ErrorIs(t, serv.UpdateGoals(context.Background(), uid, "run every morning"), errorvalues.ErrUserNotFound)
	})

	t.Run("error goals too long", func(t *testing.T) {
		long := make([]byte, 4001)
		for i := range long {
			long[i] = 'a'
		}
		assert.Error(t, serv.UpdateGoals(context.Background(), uid, string(long)))
	})
}

func TestDeleteAccount(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	usersRepo := mocks.NewMockUsersRepositoryI(ctrl)

	serv := service.NewUserService(usersRepo)
	uid := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("qwerty123"), bcrypt.MinCost)
	assert.NoError(t, err)
	storedUser := &entity.User{
		ID:           uid,
		Name:         "test_user",
		PasswordHash: string(hash),
	}
	testCases := []struct {
		Desc         string
		Error        error
		Password     string
		MockPrepFunc func()
	}{
		{
			Desc:     "success",
			Error:    nil,
			Password: "qwerty123",
			MockPrepFunc: func() {
				usersRepo.EXPECT().FindByID(gomock.Any(), uid).Return(storedUser, nil)
				usersRepo.EXPECT().Delete(gomock.Any(), uid).Return(nil)
			},
		},
		{
			Desc:     "error wrong password",
			Error:    errorvalues.ErrWrongCredentials,
			Password: "hunter2hunter2",
			MockPrepFunc: func() {
				usersRepo.EXPECT().FindByID(gomock.Any(), uid).Return(storedUser, nil)
			},
		},
		{
			Desc:     "error unexist user",
			Error:    errorvalues.ErrUserNotFound,
			Password: "qwerty123",
			MockPrepFunc: func() {
				usersRepo.EXPECT().FindByID(gomock.Any(), uid).Return(nil, errorvalues.ErrUserNotFound)
			},
		},
	}
	ctx := context.Background()
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			tc.MockPrepFunc()
			err := serv.DeleteAccount(ctx, uid, tc.Password)
			assert.ErrorIs(t, err, tc.Error)
		})
	}
}
