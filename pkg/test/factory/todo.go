package factory

import (
	fab "github.com/Goldziher/fabricator"

	"todotracker/internal/core/domain"
)

// NewTodo builds a todo with a random title. Tags, dates and the reminder are
// only set when passed in, so the row satisfies the schema constraints.
func NewTodo(customData ...map[string]any) domain.Todo {
	todo := fab.New(domain.Todo{}).Build(merged(customData))
	todo.ID = 0

	if !hasKey(customData, "Tags") {
		todo.Tags = nil
	}

	if !hasKey(customData, "StartDate") {
		todo.StartDate = nil
	}

	if !hasKey(customData, "EndDate") {
		todo.EndDate = nil
	}

	if !hasKey(customData, "ActivityType") {
		todo.ActivityType = ""
	}

	if !hasKey(customData, "Completed") {
		todo.Completed = false
	}

	if hasKey(customData, "ReminderAt") {
		todo.ScheduleReminder(todo.ReminderAt)
	} else {
		todo.ScheduleReminder(nil)
	}

	return todo
}
