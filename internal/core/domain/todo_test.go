package domain

import (
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestTodo_ScheduleReminder(t *testing.T) {
	RegisterTestingT(t)

	t.Run("a time arms the reminder as pending", func(t *testing.T) {
		todo := Todo{}
		at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("BRT", -3*3600))

		todo.ScheduleReminder(&at)

		Expect(todo.ReminderAt).ToNot(BeNil())
		Expect(todo.ReminderAt.Location()).To(Equal(time.UTC))
		Expect(todo.ReminderAt.Equal(at)).To(BeTrue())
		Expect(*todo.ReminderStatus).To(Equal(ReminderPending))
		Expect(todo.ReminderPending()).To(BeTrue())
	})

	t.Run("a sent reminder is re-armed by a new time", func(t *testing.T) {
		sent := ReminderSent
		old := time.Now().Add(-time.Hour)
		todo := Todo{ReminderAt: &old, ReminderStatus: &sent}

		next := time.Now().Add(time.Hour)
		todo.ScheduleReminder(&next)

		Expect(*todo.ReminderStatus).To(Equal(ReminderPending))
	})

	t.Run("nil clears both fields", func(t *testing.T) {
		todo := Todo{}
		at := time.Now()
		todo.ScheduleReminder(&at)

		todo.ScheduleReminder(nil)

		Expect(todo.ReminderAt).To(BeNil())
		Expect(todo.ReminderStatus).To(BeNil())
		Expect(todo.ReminderPending()).To(BeFalse())
	})
}

func TestNormalizeTagName(t *testing.T) {
	RegisterTestingT(t)

	Expect(NormalizeTagName("  Work ")).To(Equal("work"))
	Expect(NormalizeTagName("WORK")).To(Equal("work"))
	Expect(NormalizeTagName("   ")).To(BeEmpty())
}

func TestTodo_TagNames(t *testing.T) {
	RegisterTestingT(t)

	todo := Todo{Tags: []Tag{{ID: 1, Name: "home"}, {ID: 2, Name: "work"}}}

	Expect(todo.TagNames()).To(Equal([]string{"home", "work"}))
	Expect(todo.TagIDs()).To(Equal([]int{1, 2}))
}
