// Package capture defines capture jobs as reported by the archiving service, the client-local state
// attached to them and the reconciliation of both into a view model.
package capture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Status of a capture job, server-controlled
type Status string

// wire values used by the archiving service
const (
	StatusInProgress Status = "In progress"
	StatusQueued     Status = "Queued"
	StatusComplete   Status = "Complete"
	StatusFailed     Status = "Failed"
)

// IsDone returns true for terminal statuses
func (s Status) IsDone() bool {
	return s == StatusComplete || s == StatusFailed
}

// Job is a single capture job instance as returned by the job list endpoint.
// A job id may appear several times with different index values, one per url submitted together.
type Job struct {
	JobID      string    `json:"jobid"`
	Index      int       `json:"index"`
	Status     Status    `json:"status"`
	CaptureURL string    `json:"captureUrl"`
	UserTag    string    `json:"userTag,omitempty"`
	StartTime  Timestamp `json:"startTime"`
	AccessURL  string    `json:"accessUrl,omitempty"`
	Size       *int64    `json:"size,omitempty"`
}

// Key returns compound identity of the job
func (j Job) Key() Key {
	return Key{JobID: j.JobID, Index: j.Index}
}

// Label returns user tag or job id if no tag set
func (j Job) Label() string {
	if j.UserTag != "" {
		return j.UserTag
	}
	return j.JobID
}

// Key is a compound job identity, jobid + index
type Key struct {
	JobID string
	Index int
}

// Valid checks both parts of the key are present. Zero index is treated as absent.
func (k Key) Valid() bool {
	return k.JobID != "" && k.Index != 0
}

func (k Key) String() string {
	return k.JobID + "-" + strconv.Itoa(k.Index)
}

// Timestamp is a point in time encoded on the wire as milliseconds since epoch.
// RFC3339 strings are accepted on input as well.
type Timestamp struct {
	time.Time
}

// UnixMilli makes Timestamp from milliseconds since epoch
func UnixMilli(ms int64) Timestamp {
	return Timestamp{Time: time.UnixMilli(ms)}
}

// MarshalJSON encodes timestamp as milliseconds, zero time as null
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.UnixMilli(), 10)), nil
}

// UnmarshalJSON decodes milliseconds number or RFC3339 string
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("can't decode timestamp string: %w", err)
		}
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("can't parse timestamp %q: %w", s, err)
		}
		t.Time = ts
		return nil
	}

	ms, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("can't parse timestamp %s: %w", data, err)
	}
	t.Time = time.UnixMilli(int64(ms))
	return nil
}
