package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/job"
)

type JobCursor struct {
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`
}

func EncodeJobCursor(updatedAt time.Time, id string) (string, error) {
	b, err := json.Marshal(JobCursor{UpdatedAt: updatedAt, ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeJobCursor(cursor string) (JobCursor, error) {
	if cursor == "" {
		return JobCursor{}, errors.New("empty cursor")
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return JobCursor{}, err
	}
	var c JobCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return JobCursor{}, err
	}
	if c.ID == "" || c.UpdatedAt.IsZero() {
		return JobCursor{}, errors.New("invalid cursor payload")
	}
	return c, nil
}

// PageJobs trims a limit+1 result set to limit and builds the cursor of the
// last returned row when more rows exist.
func PageJobs(items []job.Job, limit int) ([]job.Job, *string, bool, error) {
	if len(items) <= limit {
		return items, nil, false, nil
	}

	items = items[:limit]
	last := items[len(items)-1]

	cur, err := EncodeJobCursor(last.UpdatedAt, last.ID)
	if err != nil {
		return nil, nil, false, err
	}
	return items, &cur, true, nil
}
