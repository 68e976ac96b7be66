package service_test

import (
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"todotracker/internal/adapter/database"
	"todotracker/internal/adapter/database/repository"
	"todotracker/internal/core/domain"
	"todotracker/internal/core/model/request"
	"todotracker/internal/core/port"
	"todotracker/internal/core/service"
	"todotracker/internal/core/telemetry"
	. "todotracker/pkg/test"
	"todotracker/pkg/test/factory"
)

type UserServiceTestSuite struct {
	suite.Suite
	db            *database.DB
	Service       *service.UserService
	UserRepo      port.UserRepository
	TodoRepo      port.TodoRepository
	Notifications *service.NotificationDispatcher
}

func (s *UserServiceTestSuite) SetupTest() {
	s.db = InitTestDB()
	probe := telemetry.NewNoOpProbe()

	s.UserRepo = repository.NewUserRepository(s.db, probe)
	s.TodoRepo = repository.NewTodoRepository(s.db, probe)
	s.Notifications = service.NewNotificationDispatcher(repository.NewPushSubscriptionRepository(s.db, probe), nil, nil, zap.NewNop())
	s.Service = service.NewUserService(s.UserRepo, s.Notifications)
}

func (s *UserServiceTestSuite) TearDownTest() {
	TeardownTest(s.T(), s.db)
}

func TestUserServiceTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(UserServiceTestSuite))
}

func (s *UserServiceTestSuite) TestApprove() {
	user, _ := s.UserRepo.Create(ctx, factory.NewUser(map[string]any{"Username": "alice", "Status": domain.UserPending}))

	pending, err := s.Service.ListPending(ctx)
	Expect(err).ToNot(HaveOccurred())
	Expect(pending).To(HaveLen(1))

	approved, err := s.Service.Approve(ctx, user.ID)
	Expect(err).ToNot(HaveOccurred())
	Expect(approved.Status).To(Equal(domain.UserActive))

	pending, err = s.Service.ListPending(ctx)
	Expect(err).ToNot(HaveOccurred())
	Expect(pending).To(BeEmpty())

	_, err = s.Service.Approve(ctx, 999)
	Expect(err).To(MatchError(domain.ErrNotFound))
}

func (s *UserServiceTestSuite) TestApproveByUsername() {
	s.UserRepo.Create(ctx, factory.NewUser(map[string]any{"Username": "alice", "Status": domain.UserPending}))

	approved, err := s.Service.ApproveByUsername(ctx, "alice")

	Expect(err).ToNot(HaveOccurred())
	Expect(approved.IsActive()).To(BeTrue())
}

func (s *UserServiceTestSuite) TestDelete_RemovesSubscriptionsButKeepsTodos() {
	user, _ := s.UserRepo.Create(ctx, factory.NewUser(map[string]any{"Username": "alice"}))

	_, err := s.Notifications.Subscribe(ctx, user.ID, request.PushSubscriptionRequest{
		Endpoint: "https://push.example.com/a",
		Keys:     request.PushSubscriptionKeys{P256dh: "p256dh", Auth: "auth"},
	})
	Expect(err).ToNot(HaveOccurred())

	at := time.Now().Add(-time.Minute)
	todo := factory.NewTodo(map[string]any{"Owner": "alice"})
	todo.ScheduleReminder(&at)
	s.TodoRepo.Create(ctx, todo)

	Expect(s.Service.Delete(ctx, user.ID)).To(Succeed())

	active, err := s.Notifications.HasActiveSubscription(ctx, user.ID)
	Expect(err).ToNot(HaveOccurred())
	Expect(active).To(BeFalse())

	todos, err := s.TodoRepo.FindAllByOwner(ctx, "alice")
	Expect(err).ToNot(HaveOccurred())
	Expect(todos).To(HaveLen(1))

	all, err := s.Service.ListAll(ctx)
	Expect(err).ToNot(HaveOccurred())
	Expect(all).To(BeEmpty())
}
