// Package httpapi exposes search, discount admin and quote carts over HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/minhanee-art/kingtire/internal/catalog"
	"github.com/minhanee-art/kingtire/internal/discount"
	"github.com/minhanee-art/kingtire/internal/merge"
	"github.com/minhanee-art/kingtire/internal/metrics"
	"github.com/minhanee-art/kingtire/internal/quote"
)

type Deps struct {
	Engine        *merge.Engine
	Catalog       *catalog.Cache
	Admin         *discount.Admin
	Sessions      *quote.Sessions
	Metrics       *metrics.Registry
	Branding      quote.Branding
	AllowedBrands []string
	Log           zerolog.Logger
}

type Server struct {
	Deps
	log zerolog.Logger
}

func New(d Deps) *Server {
	return &Server{Deps: d, log: d.Log.With().Str("component", "httpapi").Logger()}
}

// Response is the JSON envelope every API handler returns.
type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   bool   `json:"error,omitempty"`
}

func ok(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Message: message, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{Message: message, Error: true})
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	if s.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		api.GET("/products", s.searchProducts)
		api.POST("/catalog/refresh", s.refreshCatalog)

		api.GET("/discounts", s.listDiscounts)
		api.PUT("/discounts/:kind", s.setDiscount)
		api.POST("/discounts/bulk", s.bulkPatternDiscount)

		api.GET("/admin/patterns", s.patternGroups)
		api.GET("/admin/sizes", s.sizeList)
	}

	carts := api.Group("/carts")
	{
		carts.POST("", s.createCart)
		carts.GET("/:id", s.getCart)
		carts.DELETE("/:id", s.deleteCart)
		carts.PUT("/:id/grade", s.setCartGrade)
		carts.PUT("/:id/mode", s.setCartMode)
		carts.PUT("/:id/manual/:code", s.setManualRate)

		carts.POST("/:id/lines", s.addLine)
		carts.DELETE("/:id/lines", s.clearLines)
		carts.PATCH("/:id/lines/:code", s.changeQuantity)
		carts.PUT("/:id/lines/:code/discount", s.setLineDiscount)
		carts.DELETE("/:id/lines/:code", s.removeLine)
		carts.GET("/:id/quote", s.quoteText)

		carts.POST("/:id/compare", s.toggleCompare)
		carts.GET("/:id/compare", s.compareText)
	}
	return r
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}
