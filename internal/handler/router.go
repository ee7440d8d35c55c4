package handler

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/askdocs/internal/middleware"
)

type RouterDeps struct {
	Query         *QueryHandler
	Meta          *MetaHandler
	CORSAllowlist []string
	RateQPS       float64
	RateBurst     int
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(deps.CORSAllowlist))
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(middleware.RateLimit(deps.RateQPS, deps.RateBurst))

	router.GET("/", deps.Meta.Root)
	router.GET("/healthz", deps.Meta.Healthz)
	router.GET("/stats", deps.Meta.Stats)
	router.POST("/query", deps.Query.PostQuery)

	return router
}
