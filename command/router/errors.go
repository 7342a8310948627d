package router

import (
	"errors"

	"NucleusBot/database"
	"NucleusBot/errorhandler"
	"NucleusBot/nucleus"
)

// StoreError maps storage failures to what the user should read; what
// names the thing that exists already or could not be found.
func StoreError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrDuplicate):
		return errorhandler.NewDuplicateError(err, what)
	case errors.Is(err, database.ErrNotFound):
		return errorhandler.NewNotFoundError(err, what)
	default:
		return errorhandler.NewDatabaseError(err, what)
	}
}

// PortalError maps Nucleus client failures to user-facing errors.
func PortalError(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, nucleus.ErrInvalidCredentials), errors.Is(err, nucleus.ErrUnexpectedResponse):
		return errorhandler.NewAuthenticationError(err)
	case errors.Is(err, nucleus.ErrSessionExpired):
		return errorhandler.NewSessionExpiredError(err)
	case nucleus.IsNetworkError(err):
		return errorhandler.NewNetworkError(err, action)
	default:
		return errorhandler.NewError(errorhandler.UnknownError, err, action, "", false)
	}
}
