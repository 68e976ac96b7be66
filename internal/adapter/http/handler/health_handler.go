package handler

import (
	"context"
	"net/http"
	"time"

	. "todotracker/internal/adapter/http/helper"
	"todotracker/internal/core/model/response"
	. "todotracker/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	dialect string
}

func NewHealthHandler(db Pinger, dialect string) *HealthHandler {
	return &HealthHandler{db: db, dialect: dialect}
}

func (h *HealthHandler) DBHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	err := SpanWrapper(ctx, "db.ping", []attribute.KeyValue{attribute.String("db.system", h.dialect)}, h.db.PingContext)

	if err != nil {
		SendError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", []response.ValidationError{
			{Field: "database", Message: err.Error()},
		})
		return
	}

	SendSuccess(c, http.StatusOK, gin.H{"status": "UP", "database": h.dialect})
}
