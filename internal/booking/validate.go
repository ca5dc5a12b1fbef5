package booking

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/exam-reservation/internal/model"
)

const (
	MinTitleLen     = 2
	MaxTitleLen     = 300
	MaxTextLen      = 63206
	MaxUsersLimit   = 50000
	DefaultMaxUsers = MaxUsersLimit
)

var mediaURLPattern = regexp.MustCompile(`^(https?|ftp)://[^\s/$.?#].[^\s]*$`)

// ScheduleInput is the caller-settable part of a new exam schedule.
type ScheduleInput struct {
	Title    string
	Text     string
	MediaURL *string
	StartAt  time.Time
	EndAt    time.Time
	MaxUsers int
}

// SchedulePatch is a partial update. Nil fields are left unchanged. Counters
// are never patchable; Status accepts AVAILABLE, CANCELLED or DELETED.
type SchedulePatch struct {
	Title    *string
	Text     *string
	MediaURL *string
	StartAt  *time.Time
	EndAt    *time.Time
	MaxUsers *int
	Status   *model.ScheduleStatus
}

func (p SchedulePatch) empty() bool {
	return p.Title == nil && p.Text == nil && p.MediaURL == nil &&
		p.StartAt == nil && p.EndAt == nil && p.MaxUsers == nil && p.Status == nil
}

func (p SchedulePatch) touchesDetails() bool {
	return p.Title != nil || p.Text != nil || p.MediaURL != nil ||
		p.StartAt != nil || p.EndAt != nil || p.MaxUsers != nil
}

func validateSchedule(s *model.ExamSchedule) error {
	if n := utf8.RuneCountInString(s.Title); n < MinTitleLen || n > MaxTitleLen {
		return BadRequest("title must be %d to %d characters", MinTitleLen, MaxTitleLen)
	}
	if n := utf8.RuneCountInString(s.Text); n < 1 || n > MaxTextLen {
		return BadRequest("text must be 1 to %d characters", MaxTextLen)
	}
	if s.MediaURL != nil && !mediaURLPattern.MatchString(*s.MediaURL) {
		return BadRequest("media_url is not a valid URL")
	}
	if s.StartAt.IsZero() || s.EndAt.IsZero() {
		return BadRequest("start_at and end_at are required")
	}
	if !s.EndAt.After(s.StartAt) {
		return BadRequest("end_at must be after start_at")
	}
	if s.MaxUsers < 1 || s.MaxUsers > MaxUsersLimit {
		return BadRequest("max_users must be between 1 and %d", MaxUsersLimit)
	}
	return nil
}

func normalizeMediaURL(u *string) *string {
	if u == nil {
		return nil
	}
	v := strings.TrimSpace(*u)
	if v == "" {
		return nil
	}
	return &v
}
