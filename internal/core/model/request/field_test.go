package request

import (
	"encoding/json"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestUpdateTodoRequest_ThreeStateFields(t *testing.T) {
	RegisterTestingT(t)

	t.Run("absent keys stay unset", func(t *testing.T) {
		var req UpdateTodoRequest
		Expect(json.Unmarshal([]byte(`{"title":"Buy milk"}`), &req)).To(Succeed())

		Expect(req.Title.Set).To(BeTrue())
		Expect(req.Title.Value).To(Equal("Buy milk"))
		Expect(req.Completed.Set).To(BeFalse())
		Expect(req.Tags.Set).To(BeFalse())
		Expect(req.ReminderAt.Set).To(BeFalse())
	})

	t.Run("explicit null is present but empty", func(t *testing.T) {
		var req UpdateTodoRequest
		Expect(json.Unmarshal([]byte(`{"reminderAt":null}`), &req)).To(Succeed())

		Expect(req.ReminderAt.Set).To(BeTrue())
		Expect(req.ReminderAt.Null).To(BeTrue())
		Expect(req.ReminderAt.Ptr()).To(BeNil())
	})

	t.Run("values are decoded", func(t *testing.T) {
		var req UpdateTodoRequest
		body := `{"completed":false,"tags":[],"reminderAt":"2026-05-01T10:00:00Z"}`
		Expect(json.Unmarshal([]byte(body), &req)).To(Succeed())

		completed, ok := req.Completed.Get()
		Expect(ok).To(BeTrue())
		Expect(completed).To(BeFalse())

		tags, ok := req.Tags.Get()
		Expect(ok).To(BeTrue())
		Expect(tags).To(BeEmpty())

		Expect(req.ReminderAt.Ptr().Equal(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))).To(BeTrue())
	})

	t.Run("type errors surface", func(t *testing.T) {
		var req UpdateTodoRequest
		Expect(json.Unmarshal([]byte(`{"completed":"yes"}`), &req)).ToNot(Succeed())
	})
}
