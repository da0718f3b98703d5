package auth

import (
	"errors"

	"scribes/internal/apperr"
)

var (
	// ErrDuplicate is returned by UsersRepo.Create when the email is taken.
	ErrDuplicate = errors.New("user with this email already exists")
	// ErrUserNotFound is returned by the UsersRepo lookups and DeleteAccount.
	ErrUserNotFound = apperr.NotFound("user not found")

	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = &apperr.Error{Kind: ErrUnauthorized, Msg: "invalid credentials"}
	// ErrRegistration hides whether the email already exists.
	ErrRegistration = apperr.Conflict("registration failed")

	// ErrWrongPassword rejects a password change with a bad current password.
	ErrWrongPassword = apperr.Invalid("current password is incorrect")
	// ErrSamePassword rejects a password change that keeps the old password.
	ErrSamePassword = apperr.Invalid("new password must differ from the current password")

	// ErrUnauthorized is the kind of credential failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrGenAccessToken is returned when we cannot create a JWT.
	ErrGenAccessToken = errors.New("failed to generate access token")
)
