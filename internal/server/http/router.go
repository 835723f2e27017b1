package http

import (
	"net/http"

	"github.com/dmitrijs2005/idkeeper/internal/logging"
	"github.com/dmitrijs2005/idkeeper/internal/server/auth"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the public and gated routes.
func NewRouter(users UserService, gate *auth.Gate, store Pinger, log logging.Logger) *gin.Engine {
	h := &handler{users: users, store: store, log: log}

	r := gin.New()
	r.Use(requestID(), accessLog(log), recovery(log))

	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.GET("/healthz", h.healthz)

	protected := r.Group("/", authGate(gate, log.With("component", "auth_gate")))
	protected.GET("/me", h.me)
	protected.GET("/users", h.listUsers)
	protected.GET("/users/:id", h.getUser)
	protected.PUT("/users/:id", h.updateUser)
	protected.DELETE("/users/:id", h.deleteUser)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "Not found"})
	})

	return r
}
