package nucleus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Timestamp accepts the portal's date formats: ISO-8601 strings with or
// without a zone, and epoch numbers in seconds or milliseconds. Values are
// cut to milliseconds, the precision watermarks are stored at.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] != '"' {
		n, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("timestamp %s: %w", data, err)
		}
		if n > 1e12 {
			t.Time = time.UnixMilli(n).UTC()
		} else {
			t.Time = time.Unix(n, 0).UTC()
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC().Truncate(time.Millisecond)
			return nil
		}
	}
	return fmt.Errorf("timestamp %q: unrecognised format", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

type Assignment struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"courseId"`
	CourseName  string    `json:"courseName"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AddedOn     Timestamp `json:"addedOn"`
	DueDate     Timestamp `json:"dueDate"`
	Links       []string  `json:"links"`
}

type Resource struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"courseId"`
	CourseName  string    `json:"courseName"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	AddedOn     Timestamp `json:"addedOn"`
	Link        string    `json:"link"`
}

type Profile struct {
	RollNo  string `json:"rollNo"`
	Name    string `json:"name"`
	ClassID string `json:"classId"`
}

type Course struct {
	ID   string `json:"courseId"`
	Name string `json:"courseName"`
}

type ClassDetails struct {
	ClassID string   `json:"classId"`
	Courses []Course `json:"courses"`
}

type Period struct {
	CourseID   string    `json:"courseId"`
	CourseName string    `json:"courseName"`
	Faculty    string    `json:"facultyName"`
	Start      Timestamp `json:"startTime"`
	End        Timestamp `json:"endTime"`
}

// listPayload decodes either a bare JSON array or an object wrapping it
// under "data".
type listPayload[T any] struct {
	Items []T
}

func (p *listPayload[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &p.Items)
	}
	var wrapped struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	p.Items = wrapped.Data
	return nil
}
