package nucleus

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Session is the cookie set the portal issued at login.
type Session struct {
	Username string
	Cookies  map[string]string
}

// EncodeCookies serializes the cookie set for storage.
func (s *Session) EncodeCookies() (string, error) {
	cookies := s.Cookies
	if cookies == nil {
		cookies = map[string]string{}
	}
	data, err := json.Marshal(cookies)
	if err != nil {
		return "", fmt.Errorf("encode cookies for %s: %w", s.Username, err)
	}
	return string(data), nil
}

// DecodeSession restores a session from stored cookies. An empty string
// yields a session with no cookies, which the portal treats as expired.
func DecodeSession(username, encoded string) (*Session, error) {
	cookies := map[string]string{}
	if strings.TrimSpace(encoded) != "" {
		if err := json.Unmarshal([]byte(encoded), &cookies); err != nil {
			return nil, fmt.Errorf("decode cookies for %s: %w", username, err)
		}
	}
	return &Session{Username: username, Cookies: cookies}, nil
}
