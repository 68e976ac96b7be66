package service_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"todotracker/internal/adapter/database"
	"todotracker/internal/adapter/database/repository"
	"todotracker/internal/core/domain"
	"todotracker/internal/core/port"
	"todotracker/internal/core/service"
	"todotracker/internal/core/telemetry"
	. "todotracker/pkg/test"
	"todotracker/pkg/test/factory"
)

type dispatchCall struct {
	Username string
	Title    string
	Body     string
}

type recordingDispatcher struct {
	port.NotificationDispatcher
	calls  []dispatchCall
	before func(user domain.User)
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, user domain.User, title string, body string) {
	if d.before != nil {
		d.before(user)
	}

	d.calls = append(d.calls, dispatchCall{Username: user.Username, Title: title, Body: body})
}

type heldLock struct{}

func (heldLock) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	return nil, false, nil
}

type ReminderScannerTestSuite struct {
	suite.Suite
	db         *database.DB
	todos      port.TodoRepository
	users      port.UserRepository
	dispatcher *recordingDispatcher
	scanner    *service.ReminderScanner
}

func (s *ReminderScannerTestSuite) SetupTest() {
	s.db = InitTestDB()
	probe := telemetry.NewNoOpProbe()

	s.todos = repository.NewTodoRepository(s.db, probe)
	s.users = repository.NewUserRepository(s.db, probe)
	s.dispatcher = &recordingDispatcher{}
	s.scanner = service.NewReminderScanner(s.todos, s.users, s.dispatcher, nil, 0, nil, zap.NewNop())

	for _, username := range []string{"alice", "carol"} {
		_, err := s.users.Create(ctx, factory.NewUser(map[string]any{"Username": username}))
		Expect(err).ToNot(HaveOccurred())
	}
}

func (s *ReminderScannerTestSuite) TearDownTest() {
	TeardownTest(s.T(), s.db)
}

func TestReminderScannerTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(ReminderScannerTestSuite))
}

func (s *ReminderScannerTestSuite) createReminder(owner string, title string, at time.Time) domain.Todo {
	todo := factory.NewTodo(map[string]any{"Owner": owner, "Title": title})
	todo.ScheduleReminder(&at)

	created, err := s.todos.Create(ctx, todo)
	Expect(err).ToNot(HaveOccurred())

	return created
}

func (s *ReminderScannerTestSuite) status(todo domain.Todo) domain.ReminderStatus {
	found, err := s.todos.FindByIDAndOwner(ctx, todo.ID, todo.Owner)
	Expect(err).ToNot(HaveOccurred())
	Expect(found.ReminderStatus).ToNot(BeNil())

	return *found.ReminderStatus
}

func (s *ReminderScannerTestSuite) TestRunCycle_SendsDueReminderOnce() {
	todo := s.createReminder("alice", "Pay rent", time.Now().Add(-time.Second))
	s.createReminder("alice", "Later", time.Now().Add(time.Hour))

	result := s.scanner.RunCycle(ctx)

	assert.Equal(s.T(), service.CycleResult{Due: 1, Sent: 1}, result)
	assert.Len(s.T(), s.dispatcher.calls, 1)
	assert.Equal(s.T(), dispatchCall{Username: "alice", Title: "Todo Reminder", Body: "Reminder: Pay rent"}, s.dispatcher.calls[0])
	assert.Equal(s.T(), domain.ReminderSent, s.status(todo))

	result = s.scanner.RunCycle(ctx)

	assert.Equal(s.T(), service.CycleResult{}, result)
	assert.Len(s.T(), s.dispatcher.calls, 1)
}

func (s *ReminderScannerTestSuite) TestRunCycle_MissingOwnerDoesNotStopTheSweep() {
	first := s.createReminder("alice", "first", time.Now().Add(-3*time.Minute))
	second := s.createReminder("ghost", "second", time.Now().Add(-2*time.Minute))
	third := s.createReminder("carol", "third", time.Now().Add(-time.Minute))

	result := s.scanner.RunCycle(ctx)

	Expect(result).To(Equal(service.CycleResult{Due: 3, Sent: 2, Skipped: 1}))
	Expect(s.status(first)).To(Equal(domain.ReminderSent))
	Expect(s.status(second)).To(Equal(domain.ReminderPending))
	Expect(s.status(third)).To(Equal(domain.ReminderSent))
}

func (s *ReminderScannerTestSuite) TestRunCycle_PanicIsContainedPerTodo() {
	first := s.createReminder("alice", "first", time.Now().Add(-2*time.Minute))
	second := s.createReminder("carol", "second", time.Now().Add(-time.Minute))

	s.dispatcher.before = func(user domain.User) {
		if user.Username == "alice" {
			panic("transport exploded")
		}
	}

	result := s.scanner.RunCycle(ctx)

	Expect(result).To(Equal(service.CycleResult{Due: 2, Sent: 1, Failed: 1}))
	Expect(s.status(first)).To(Equal(domain.ReminderPending))
	Expect(s.status(second)).To(Equal(domain.ReminderSent))
}

func (s *ReminderScannerTestSuite) TestRunCycle_RescheduleDuringDispatchWins() {
	todo := s.createReminder("alice", "Moving target", time.Now().Add(-time.Minute))
	next := time.Now().Add(time.Hour)

	s.dispatcher.before = func(user domain.User) {
		moved := todo
		moved.ScheduleReminder(&next)
		_, err := s.todos.Update(ctx, port.TodoUpdate{Todo: moved, ReplaceReminder: true})
		Expect(err).ToNot(HaveOccurred())
	}

	result := s.scanner.RunCycle(ctx)

	Expect(result).To(Equal(service.CycleResult{Due: 1, Skipped: 1}))
	Expect(s.status(todo)).To(Equal(domain.ReminderPending))
}

func (s *ReminderScannerTestSuite) TestRunCycle_SkipsWhenLockIsHeld() {
	s.createReminder("alice", "Pay rent", time.Now().Add(-time.Second))
	scanner := service.NewReminderScanner(s.todos, s.users, s.dispatcher, heldLock{}, time.Minute, nil, zap.NewNop())

	result := scanner.RunCycle(ctx)

	Expect(result).To(Equal(service.CycleResult{}))
	Expect(s.dispatcher.calls).To(BeEmpty())
}

func TestReminderMessage(t *testing.T) {
	RegisterTestingT(t)

	todo := domain.Todo{Title: "Pay rent"}
	Expect(service.ReminderMessage(todo)).To(Equal("Reminder: Pay rent"))

	end := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)
	todo.EndDate = &end
	Expect(service.ReminderMessage(todo)).To(Equal("Reminder: Pay rent (Due: Mar 01, 2026 at 09:05)"))
}
