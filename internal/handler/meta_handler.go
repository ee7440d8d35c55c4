package handler

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/askdocs/internal/pkg/response"
	"github.com/xxxsen/askdocs/internal/service"
)

type MetaHandler struct {
	index *service.IndexService
	db    *sql.DB
}

func NewMetaHandler(index *service.IndexService, db *sql.DB) *MetaHandler {
	return &MetaHandler{index: index, db: db}
}

func (h *MetaHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "askdocs RAG API is running",
		"endpoints": gin.H{
			"POST /query":  "ask a question using ?q=",
			"GET /":        "service metadata",
			"GET /healthz": "health check",
			"GET /stats":   "index statistics",
		},
	})
}

func (h *MetaHandler) Healthz(c *gin.Context) {
	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type statsResponse struct {
	Collection string `json:"collection"`
	Chunks     int64  `json:"chunks"`
}

func (h *MetaHandler) Stats(c *gin.Context) {
	count, err := h.index.Count(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, statsResponse{
		Collection: h.index.Collection(),
		Chunks:     count,
	})
}
