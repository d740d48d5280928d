package errorvalues

import "errors"

var (
	ErrUserExists       = errors.New("such user already exists")
	ErrUserNotFound     = errors.New("user doesn't exists")
	ErrWrongCredentials = errors.New("wrong name or password")
	ErrInvalidToken     = errors.New("invalid token")

	ErrGroupNotFound  = errors.New("group doesn't exist")
	ErrAlreadyMember  = errors.New("user is already a group member")
	ErrNotGroupMember = errors.New("user is not a group member")
	ErrNotGroupOwner  = errors.New("only group creator can do this")

	ErrTaskNotFound    = errors.New("task doesn't exist")
	ErrOwnerNotFound   = errors.New("task owner doesn't exist")
	ErrWrongOwner      = errors.New("task has different owner")
	ErrTaskNotVisible  = errors.New("task is not visible to user")
	ErrInvalidSchedule = errors.New("schedule must select at least one day")
	ErrTaskNotDue      = errors.New("task is not due on given date")

	ErrCompletionNotFound       = errors.New("completion record doesn't exist")
	ErrCompletionDateNotAllowed = errors.New("completion date is in the future")

	ErrCacheMiss = errors.New("leaderboard cache miss")

	ErrAIUnavailable = errors.New("ai provider unavailable")
)
