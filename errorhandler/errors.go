package errorhandler

import (
	"errors"
	"fmt"

	"NucleusBot/logger"
)

type ErrorCategory int

const (
	NetworkError ErrorCategory = iota
	DatabaseError
	DuplicateError
	AuthenticationError
	SessionExpiredError
	ValidationError
	NotAuthorizedError
	NotWhitelistedError
	NotFoundError
	DiscordError
	UnknownError
)

func (c ErrorCategory) String() string {
	switch c {
	case NetworkError:
		return "network"
	case DatabaseError:
		return "database"
	case DuplicateError:
		return "duplicate"
	case AuthenticationError:
		return "authentication"
	case SessionExpiredError:
		return "session_expired"
	case ValidationError:
		return "validation"
	case NotAuthorizedError:
		return "not_authorized"
	case NotWhitelistedError:
		return "not_whitelisted"
	case NotFoundError:
		return "not_found"
	case DiscordError:
		return "discord"
	default:
		return "unknown"
	}
}

type CustomError struct {
	Category         ErrorCategory
	OriginalErr      error
	UserMessage      string
	AdminMessage     string
	IsUserActionable bool
}

func (e *CustomError) Error() string {
	if e.OriginalErr == nil {
		return e.AdminMessage
	}
	return e.OriginalErr.Error()
}

func (e *CustomError) Unwrap() error {
	return e.OriginalErr
}

const genericUserMessage = "Something went wrong on our side. The bot operators have been told."

func NewError(category ErrorCategory, err error, context string, userMsg string, isUserActionable bool) *CustomError {
	if err == nil {
		err = errors.New(context)
	}
	return &CustomError{
		Category:         category,
		OriginalErr:      err,
		UserMessage:      userMsg,
		AdminMessage:     fmt.Sprintf("%s: %v", context, err),
		IsUserActionable: isUserActionable,
	}
}

// HandleError logs err and returns the text to show the user who triggered it.
// The bool is false when the failure is on the bot's side.
func HandleError(err error) (string, bool) {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		entry := logger.Log.WithError(customErr.OriginalErr).
			WithField("category", customErr.Category.String()).
			WithField("userActionable", customErr.IsUserActionable)

		if !customErr.IsUserActionable {
			entry.Error(customErr.AdminMessage)
			return genericUserMessage, false
		}

		entry.Info(customErr.AdminMessage)
		return customErr.UserMessage, true
	}

	logger.Log.WithError(err).Error("Unexpected error occurred")
	return genericUserMessage, false
}

func CategoryOf(err error) ErrorCategory {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Category
	}
	return UnknownError
}

func NewNetworkError(err error, context string) *CustomError {
	return NewError(
		NetworkError,
		err,
		fmt.Sprintf("Network error: %s", context),
		"I couldn't reach Nucleus right now. Please try again later.",
		false,
	)
}

func NewDatabaseError(err error, context string) *CustomError {
	return NewError(
		DatabaseError,
		err,
		fmt.Sprintf("Database error: %s", context),
		genericUserMessage,
		false,
	)
}

func NewDuplicateError(err error, what string) *CustomError {
	return NewError(
		DuplicateError,
		err,
		fmt.Sprintf("Duplicate entry: %s", what),
		fmt.Sprintf("It appears that %s already exists.", what),
		true,
	)
}

func NewAuthenticationError(err error) *CustomError {
	return NewError(
		AuthenticationError,
		err,
		"Authentication error",
		"Invalid Credentials!\nLogin failed....",
		true,
	)
}

func NewSessionExpiredError(err error) *CustomError {
	return NewError(
		SessionExpiredError,
		err,
		"Session expired",
		"Your Nucleus session has expired. Please use the login command again.",
		true,
	)
}

func NewValidationError(err error, field string) *CustomError {
	return NewError(
		ValidationError,
		err,
		fmt.Sprintf("Validation error: %s", field),
		fmt.Sprintf("The %s you provided is not valid. Please check and try again.", field),
		true,
	)
}

func NewNotAuthorizedError(err error) *CustomError {
	return NewError(
		NotAuthorizedError,
		err,
		"Permission denied",
		"Who told you that you could do that?",
		true,
	)
}

func NewNotWhitelistedError(err error) *CustomError {
	return NewError(
		NotWhitelistedError,
		err,
		"Channel not whitelisted",
		"This command can't be done on this channel!",
		true,
	)
}

func NewNotFoundError(err error, what string) *CustomError {
	return NewError(
		NotFoundError,
		err,
		fmt.Sprintf("Not found: %s", what),
		fmt.Sprintf("I couldn't find %s.", what),
		true,
	)
}

func NewDiscordError(err error, context string) *CustomError {
	return NewError(
		DiscordError,
		err,
		fmt.Sprintf("Discord error: %s", context),
		"I'm having trouble talking to Discord. Please try again later.",
		false,
	)
}

// NewUserError reports a user mistake with a custom message.
func NewUserError(message string) *CustomError {
	return NewError(ValidationError, errors.New(message), "User error", message, true)
}
