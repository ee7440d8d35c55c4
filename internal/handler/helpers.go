package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/askdocs/internal/ai"
	appErr "github.com/xxxsen/askdocs/internal/pkg/errors"
	"github.com/xxxsen/askdocs/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, http.StatusTooManyRequests, "too_many_requests", "too many requests")
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, http.StatusServiceUnavailable, "ai_unavailable", "ai provider unavailable")
	case errors.Is(err, appErr.ErrGeneration):
		response.Error(c, http.StatusBadGateway, "generation_failed", "answer generation failed")
	case errors.Is(err, appErr.ErrRetrieval):
		response.Error(c, http.StatusInternalServerError, "retrieval_failed", "context retrieval failed")
	case errors.Is(err, appErr.ErrIngestion):
		response.Error(c, http.StatusInternalServerError, "ingestion_failed", "ingestion failed")
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
