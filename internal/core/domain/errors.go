package domain

import "errors"

var (
	ErrUnauthenticated = errors.New("connection not authenticated")
	ErrInvalidToken    = errors.New("invalid token")
	ErrForbidden       = errors.New("forbidden")
	ErrPayloadInvalid  = errors.New("payload invalid")

	ErrUserNotFound    = errors.New("user not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrCallNotFound    = errors.New("call not found")

	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")

	// ErrCallTerminal is returned when a transition would move a call out of
	// a terminal state.
	ErrCallTerminal = errors.New("call already in terminal state")
	// ErrCallTransition is returned for transitions the lifecycle table does
	// not allow.
	ErrCallTransition = errors.New("call transition not allowed")
)
