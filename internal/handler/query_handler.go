package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/askdocs/internal/pkg/response"
	"github.com/xxxsen/askdocs/internal/service"
)

type QueryHandler struct {
	rag *service.RAGService
}

func NewQueryHandler(rag *service.RAGService) *QueryHandler {
	return &QueryHandler{rag: rag}
}

type queryResponse struct {
	Answer string `json:"answer"`
}

// PostQuery answers POST /query?q=<question>.
func (h *QueryHandler) PostQuery(c *gin.Context) {
	question := strings.TrimSpace(c.Query("q"))
	if question == "" {
		response.Error(c, http.StatusBadRequest, "invalid", "query parameter q is required")
		return
	}
	answer, err := h.rag.Answer(c.Request.Context(), question)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, queryResponse{Answer: answer})
}
