package handler

import (
	"net/http"
	"strconv"

	. "todotracker/internal/adapter/http/helper"
	. "todotracker/internal/adapter/http/validation"
	"todotracker/internal/core/model/request"
	"todotracker/internal/core/model/response"
	"todotracker/internal/core/port"
	"todotracker/internal/core/util"
	"todotracker/pkg/auth"
	"todotracker/pkg/config"
	. "todotracker/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CacheInvalidator drops cached responses of one user, e.g. tag suggestions
// after a todo introduced new tags.
type CacheInvalidator interface {
	InvalidateCache(userID int)
}

type TodoHandler struct {
	svc    port.TodoService
	cache  CacheInvalidator
	Logger *config.LokiLogger
}

func NewTodoHandler(svc port.TodoService, cache CacheInvalidator, logger *config.LokiLogger) *TodoHandler {
	return &TodoHandler{
		svc:    svc,
		cache:  cache,
		Logger: logger,
	}
}

// GetAllTodos returns every todo of the caller, or one cursor page when
// limit or cursor is given.
func (t *TodoHandler) GetAllTodos(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.todo.GetAllTodos", []attribute.KeyValue{
		attribute.String("handler.operation", "GetAllTodos"),
		attribute.String("handler.path", c.FullPath()),
	})
	defer span.End()

	owner := c.GetString(auth.ContextUsername)
	cursor, paged := c.GetQuery("cursor")
	limitParam, hasLimit := c.GetQuery("limit")

	if !paged && !hasLimit {
		todos, err := t.svc.FindAllForOwner(ctx, owner)

		if err != nil {
			AddSpanError(span, err)
			t.Logger.Logger.Ctx(ctx).Error("Failed to get todos", zap.Error(err), zap.String("owner", owner))
			SendInternalError(c, "Error getting todos")
			return
		}

		SendSuccess(c, http.StatusOK, response.NewTodoListResponse(todos))
		return
	}

	limit, _ := strconv.Atoi(limitParam)

	span.SetAttributes(
		attribute.String("todo.cursor", cursor),
		attribute.Int("todo.limit", limit),
	)

	data, err := t.svc.FindPageForOwner(ctx, owner, limit, cursor)

	if err != nil {
		AddSpanError(span, err)
		t.Logger.Logger.Ctx(ctx).Warn("Failed to get todo page", zap.Error(err), zap.String("owner", owner))
		SendDomainError(c, err, "cursor")
		return
	}

	c.JSON(http.StatusOK, data)
}

func (t *TodoHandler) GetTodo(c *gin.Context) {
	id, ok := todoID(c)

	if !ok {
		return
	}

	todo, err := t.svc.FindOneForOwner(c.Request.Context(), id, c.GetString(auth.ContextUsername))

	if err != nil {
		SendDomainError(c, err, "todo")
		return
	}

	SendSuccess(c, http.StatusOK, response.NewTodoResponse(todo))
}

func (t *TodoHandler) CreateTodo(c *gin.Context) {
	ctx := c.Request.Context()
	owner := c.GetString(auth.ContextUsername)

	params, err := util.ParamsToMap[request.CreateTodoRequest](c)

	if err != nil {
		SendBadRequestError(c, "request", "Invalid request parameters")
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	todo, err := t.svc.Create(ctx, owner, params)

	if err != nil {
		t.Logger.Logger.Ctx(ctx).Warn("Error creating todo", zap.Error(err), zap.String("owner", owner))
		SendDomainError(c, err, "title")
		return
	}

	if len(params.Tags) > 0 {
		t.invalidate(c)
	}

	SendSuccess(c, http.StatusCreated, response.NewTodoResponse(todo))
}

func (t *TodoHandler) UpdateTodo(c *gin.Context) {
	ctx := c.Request.Context()
	owner := c.GetString(auth.ContextUsername)

	id, ok := todoID(c)

	if !ok {
		return
	}

	params, err := util.ParamsToMap[request.UpdateTodoRequest](c)

	if err != nil {
		SendBadRequestError(c, "request", "Invalid request parameters")
		return
	}

	if err := validateUpdate(params); err != nil {
		SendBadRequestError(c, "request", err.Error())
		return
	}

	todo, err := t.svc.Update(ctx, id, owner, params)

	if err != nil {
		t.Logger.Logger.Ctx(ctx).Warn("Error updating todo", zap.Error(err), zap.Int("todo_id", id))
		SendDomainError(c, err, "todo")
		return
	}

	if _, replaced := params.Tags.Get(); replaced {
		t.invalidate(c)
	}

	SendSuccess(c, http.StatusOK, response.NewTodoResponse(todo))
}

func (t *TodoHandler) DeleteTodo(c *gin.Context) {
	id, ok := todoID(c)

	if !ok {
		return
	}

	if err := t.svc.Delete(c.Request.Context(), id, c.GetString(auth.ContextUsername)); err != nil {
		SendDomainError(c, err, "todo")
		return
	}

	c.Status(http.StatusNoContent)
}

func (t *TodoHandler) invalidate(c *gin.Context) {
	if t.cache != nil {
		t.cache.InvalidateCache(c.GetInt(auth.ContextUserID))
	}
}

func todoID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))

	if err != nil || id <= 0 {
		SendBadRequestError(c, "id", "Invalid todo id")
		return 0, false
	}

	return id, true
}

func validateUpdate(req request.UpdateTodoRequest) error {
	if title, ok := req.Title.Get(); ok {
		if err := Validator.Var(title, "max=255"); err != nil {
			return errTitleTooLong
		}
	}

	if activityType, ok := req.ActivityType.Get(); ok {
		if err := Validator.Var(activityType, "max=50"); err != nil {
			return errActivityTypeTooLong
		}
	}

	if tags, ok := req.Tags.Get(); ok {
		if err := Validator.Var(tags, "max=50,dive,max=100"); err != nil {
			return errTooManyTags
		}
	}

	return nil
}
