package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"todotracker/internal/adapter/database"
	"todotracker/internal/adapter/database/repository"
	. "todotracker/internal/adapter/http/handler"
	"todotracker/internal/adapter/http/routes"
	"todotracker/internal/core/domain"
	"todotracker/internal/core/model/response"
	"todotracker/internal/core/port"
	"todotracker/internal/core/service"
	"todotracker/internal/core/telemetry"
	"todotracker/pkg/auth"
	"todotracker/pkg/config"
	"todotracker/pkg/middlewares"
	cache "todotracker/pkg/response"
	. "todotracker/pkg/test"
	"todotracker/pkg/test/factory"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
)

type testApp struct {
	DB     *database.DB
	JWT    *auth.JWT
	Router *gin.Engine
	Cache  *cache.ResponseCache

	Users port.UserRepository
	Todos port.TodoRepository
	Push  port.PushSubscriptionRepository
}

func newTestApp(publicKey string) *testApp {
	gin.SetMode(gin.TestMode)

	db := InitTestDB()
	probe := telemetry.NewNoOpProbe()
	logger := config.NewLokiLoggerFromZap(zap.NewNop(), "todotracker", "")

	users := repository.NewUserRepository(db, probe)
	todos := repository.NewTodoRepository(db, probe)
	tags := repository.NewTagRepository(db, probe)
	subs := repository.NewPushSubscriptionRepository(db, probe)

	resolver := service.NewTagResolver(tags)
	notifications := service.NewNotificationDispatcher(subs, nil, nil, zap.NewNop())

	responseCache := cache.NewResponseCache(zap.NewNop(), nil)
	jwt := auth.NewJWT("test-secret")

	group := &middlewares.GroupMiddleware{
		RateLimit: func(c *gin.Context) { c.Next() },
		Cache:     responseCache,
	}

	router := routes.SetupRouterForTests(routes.HandlersConfig{
		AuthHandler:   NewAuthHandler(service.NewAuthService(users), jwt, logger),
		TodoHandler:   NewTodoHandler(service.NewTodoService(todos, resolver, probe), responseCache, logger),
		TagHandler:    NewTagHandler(resolver),
		PushHandler:   NewPushHandler(notifications, publicKey),
		AdminHandler:  NewAdminHandler(service.NewUserService(users, notifications), logger),
		HealthHandler: NewHealthHandler(db, db.Dialect),
	}, group, jwt)

	return &testApp{
		DB:     db,
		JWT:    jwt,
		Router: router,
		Cache:  responseCache,
		Users:  users,
		Todos:  todos,
		Push:   subs,
	}
}

func (a *testApp) createUser(data ...map[string]any) domain.User {
	user, err := a.Users.Create(context.Background(), factory.NewUser(data...))
	Expect(err).ToNot(HaveOccurred())

	return user
}

func (a *testApp) token(user domain.User) string {
	token, err := a.JWT.CreateToken(user.ID, user.Username, string(user.Role))
	Expect(err).ToNot(HaveOccurred())

	return token
}

func (a *testApp) do(method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader

	if body != "" {
		reader = strings.NewReader(body)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)

	return rr
}

func decodeData(rr *httptest.ResponseRecorder, target any) string {
	envelope := struct {
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}{}

	Expect(json.Unmarshal(rr.Body.Bytes(), &envelope)).To(Succeed())

	if target != nil {
		Expect(json.Unmarshal(envelope.Data, target)).To(Succeed())
	}

	return envelope.Message
}

func decodeError(rr *httptest.ResponseRecorder) response.ResponseError {
	data := response.ErrorResponse{}
	Expect(json.Unmarshal(rr.Body.Bytes(), &data)).To(Succeed())

	return data.Error
}
