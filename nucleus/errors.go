package nucleus

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials means the portal rejected the roll number or password.
	ErrInvalidCredentials = errors.New("nucleus: invalid credentials")
	// ErrUnexpectedResponse means the login endpoint answered with something that is not JSON.
	ErrUnexpectedResponse = errors.New("nucleus: unexpected response")
	// ErrSessionExpired means a read came back empty or unparsable, i.e. the cookies are no longer accepted.
	ErrSessionExpired = errors.New("nucleus: session expired")
)

// NetworkError wraps transport failures and server-side errors. The caller
// may retry these; the client never does.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("nucleus %s: server returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("nucleus %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
