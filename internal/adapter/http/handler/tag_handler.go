package handler

import (
	"net/http"

	. "todotracker/internal/adapter/http/helper"
	"todotracker/internal/core/port"

	"github.com/gin-gonic/gin"
)

type TagHandler struct {
	tags port.TagResolver
}

func NewTagHandler(tags port.TagResolver) *TagHandler {
	return &TagHandler{tags: tags}
}

// Suggest answers GET /api/tags/suggest?search=wo with up to ten names.
func (h *TagHandler) Suggest(c *gin.Context) {
	names, err := h.tags.Suggest(c.Request.Context(), c.Query("search"))

	if err != nil {
		SendDomainError(c, err, "search")
		return
	}

	SendSuccess(c, http.StatusOK, names)
}
