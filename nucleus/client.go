// Package nucleus talks to the Nucleus academic portal: login, session
// liveness and the JSON read endpoints behind /server.
package nucleus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"NucleusBot/logger"
)

const (
	DefaultBaseURL = "https://nucleus.amcspsgtech.in"

	oauthPath       = "/oauth"
	serverPath      = "/server"
	classPath       = "/class"
	assignmentsPath = "/assignment"
	resourcesPath   = "/resources"
	schedulePath    = "/schedule/schedule"
	profilePath     = "/profile"

	maxBodyBytes = 8 << 20
)

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the portal at baseURL. A nil httpClient gets
// a pooled client with the given timeout.
func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = newHTTPClient(timeout)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Login posts the credentials and captures every cookie the portal sets.
// A non-JSON answer is ErrUnexpectedResponse; a rejection or a reply without
// cookies is ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	form := url.Values{}
	form.Set("rollNo", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+oauthPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("path", oauthPath)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	client := *c.http
	client.Jar = jar

	resp, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "login", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Op: "login", Err: err}
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, &NetworkError{Op: "login", StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidCredentials
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || !json.Valid(body) {
		logger.Log.WithField("username", username).Warnf("Login returned a non-JSON body (status %d)", resp.StatusCode)
		return nil, ErrUnexpectedResponse
	}

	cookies := make(map[string]string)
	for _, cookie := range jar.Cookies(req.URL) {
		cookies[cookie.Name] = cookie.Value
	}
	// Cookies scoped to a narrower path are not returned by the jar for /oauth.
	for _, cookie := range resp.Cookies() {
		if cookie.Value != "" {
			cookies[cookie.Name] = cookie.Value
		}
	}
	if len(cookies) == 0 {
		return nil, ErrInvalidCredentials
	}

	logger.Log.WithField("username", username).Info("Logged in to Nucleus")
	return &Session{Username: username, Cookies: cookies}, nil
}

// Fetch issues a read against /server for the given portal path and decodes
// the JSON answer into out. Empty, {} or null bodies, non-JSON bodies and
// 401/403 mean the session is no longer valid.
func (c *Client) Fetch(ctx context.Context, sess *Session, path, referrer string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+serverPath, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("path", path)
	if referrer != "" {
		req.Header.Set("referrer", c.baseURL+referrer)
	}
	if sess != nil {
		for name, value := range sess.Cookies {
			req.AddCookie(&http.Cookie{Name: name, Value: value})
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: "fetch " + path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &NetworkError{Op: "fetch " + path, Err: err}
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return &NetworkError{Op: "fetch " + path, StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrSessionExpired
	}

	body = bytes.TrimSpace(body)
	if isEmptyPayload(body) || !json.Valid(body) {
		return ErrSessionExpired
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func isEmptyPayload(body []byte) bool {
	switch string(body) {
	case "", "{}", "null":
		return true
	}
	return false
}

// IsSessionAlive reads the profile. A session the portal no longer accepts
// is reported as false with a nil error; network failures are returned.
func (c *Client) IsSessionAlive(ctx context.Context, sess *Session) (bool, error) {
	if sess == nil || len(sess.Cookies) == 0 {
		return false, nil
	}
	err := c.Fetch(ctx, sess, profilePath, profilePath, nil)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrSessionExpired):
		return false, nil
	default:
		return false, err
	}
}

func (c *Client) Profile(ctx context.Context, sess *Session) (Profile, error) {
	var profile Profile
	err := c.Fetch(ctx, sess, profilePath, profilePath, &profile)
	return profile, err
}

// Assignments lists assignments of one course, or of every course when
// courseID is "all" or empty.
func (c *Client) Assignments(ctx context.Context, sess *Session, courseID string) ([]Assignment, error) {
	if courseID == "" {
		courseID = "all"
	}
	path := fmt.Sprintf("%s?courseId=%s&submissionDetails=true", assignmentsPath, url.QueryEscape(courseID))

	var payload listPayload[Assignment]
	if err := c.Fetch(ctx, sess, path, "/assignments", &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

func (c *Client) Resources(ctx context.Context, sess *Session, courseID string) ([]Resource, error) {
	escaped := url.QueryEscape(courseID)
	path := fmt.Sprintf("%s?courseId=%s", resourcesPath, escaped)

	var payload listPayload[Resource]
	if err := c.Fetch(ctx, sess, path, resourcesPath+"?courseId="+escaped, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

func (c *Client) Schedule(ctx context.Context, sess *Session, date time.Time) ([]Period, error) {
	path := fmt.Sprintf("%s/%s", schedulePath, date.Format("2006-01-02"))

	var payload listPayload[Period]
	if err := c.Fetch(ctx, sess, path, "/schedule", &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

func (c *Client) ClassDetails(ctx context.Context, sess *Session, classID string) (ClassDetails, error) {
	path := fmt.Sprintf("%s/%s", classPath, url.PathEscape(classID))

	var details ClassDetails
	if err := c.Fetch(ctx, sess, path, "/class?classId="+url.QueryEscape(classID), &details); err != nil {
		return ClassDetails{}, err
	}
	if details.ClassID == "" {
		details.ClassID = classID
	}
	return details, nil
}
