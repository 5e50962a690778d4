package api

import (
	"errors"
	"net/http"

	"github.com/banachtech/option-pricer/config"
	"github.com/banachtech/option-pricer/errs"
	"github.com/gin-gonic/gin"
)

// Server serves HTTP requests for the pricing service.
type Server struct {
	config *config.Config
	router *gin.Engine
}

// NewServer creates a new HTTP server and set up routing.
func NewServer(cfg *config.Config) *Server {
	server := &Server{config: cfg}

	server.setupRouter()
	return server
}

func (server *Server) setupRouter() {
	router := gin.Default()

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	if server.config.Server.APIKeyHash != "" {
		v1.Use(server.authentication)
	}
	v1.POST("/price", server.price)
	v1.POST("/lattice", server.lattice)
	server.router = router
}

// Start runs the HTTP server on a specific address.
func (server *Server) Start(address string) error {
	return server.router.Run(address)
}

// ServeHTTP lets the server be mounted or tested as a plain handler.
func (server *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	server.router.ServeHTTP(w, r)
}

func errorResponse(err error) gin.H {
	return gin.H{"error": err.Error()}
}

func statusFor(err error) int {
	switch {
	case errs.IsConfig(err):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrPrecondition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
