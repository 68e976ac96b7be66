package domain

import (
	"time"
)

type ReminderStatus string

const (
	ReminderPending ReminderStatus = "PENDING"
	ReminderSent    ReminderStatus = "SENT"
)

func (s ReminderStatus) IsValid() bool {
	return s == ReminderPending || s == ReminderSent
}

type Todo struct {
	ID             int
	Owner          string
	Title          string
	Completed      bool
	StartDate      *time.Time
	EndDate        *time.Time
	ActivityType   string
	Tags           []Tag
	ReminderAt     *time.Time
	ReminderStatus *ReminderStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ScheduleReminder sets reminderAt and keeps the status in step with it:
// a nil time clears both, any other value re-arms the reminder as PENDING.
func (t *Todo) ScheduleReminder(at *time.Time) {
	if at == nil {
		t.ReminderAt = nil
		t.ReminderStatus = nil
		return
	}

	utc := at.UTC()
	status := ReminderPending

	t.ReminderAt = &utc
	t.ReminderStatus = &status
}

func (t *Todo) ReminderPending() bool {
	return t.ReminderAt != nil && t.ReminderStatus != nil && *t.ReminderStatus == ReminderPending
}

func (t *Todo) TagNames() []string {
	names := make([]string, 0, len(t.Tags))

	for _, tag := range t.Tags {
		names = append(names, tag.Name)
	}

	return names
}

func (t *Todo) TagIDs() []int {
	ids := make([]int, 0, len(t.Tags))

	for _, tag := range t.Tags {
		ids = append(ids, tag.ID)
	}

	return ids
}
