package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/idkeeper/internal/common"
	"github.com/dmitrijs2005/idkeeper/internal/logging"
	"github.com/dmitrijs2005/idkeeper/internal/server/auth"
	"github.com/dmitrijs2005/idkeeper/internal/server/models"
	"github.com/dmitrijs2005/idkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

// UserService is the part of services.UserService the handlers use.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.Account, error)
	Login(ctx context.Context, email, password string) (string, error)
	List(ctx context.Context) ([]*models.Account, error)
	Get(ctx context.Context, id int64) (*models.Account, error)
	Update(ctx context.Context, callerID, id int64, in services.UpdateInput) (*models.Account, error)
	Delete(ctx context.Context, callerID, id int64) (*models.Account, error)
}

// Pinger reports store health; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	users UserService
	store Pinger
	log   logging.Logger
}

func (h *handler) fail(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error(c.Request.Context(), "request failed", "error", err, "request_id", requestIDFrom(c))
	}
	c.JSON(status, errorResponse{Error: msg})
}

func (h *handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgBadBody})
		return
	}

	acc, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, common.ErrMissingField) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: msgRegisterFields})
			return
		}
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, acc)
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgBadBody})
		return
	}

	token, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (h *handler) me(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		h.fail(c, common.ErrMissingToken)
		return
	}

	acc, err := h.users.Get(c.Request.Context(), claims.SubjectID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (h *handler) listUsers(c *gin.Context) {
	accs, err := h.users.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, accs)
}

func (h *handler) getUser(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	acc, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (h *handler) updateUser(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgBadBody})
		return
	}

	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		h.fail(c, common.ErrMissingToken)
		return
	}
	acc, err := h.users.Update(c.Request.Context(), claims.SubjectID, id, services.UpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (h *handler) deleteUser(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		h.fail(c, common.ErrMissingToken)
		return
	}
	acc, err := h.users.Delete(c.Request.Context(), claims.SubjectID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (h *handler) healthz(c *gin.Context) {
	if err := h.store.PingContext(c.Request.Context()); err != nil {
		h.log.Warn(c.Request.Context(), "store ping failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID accepts only a plain positive decimal: no sign, no suffix.
func parseID(s string) (int64, error) {
	if s == "" {
		return 0, common.ErrInvalidID
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, common.ErrInvalidID
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrInvalidID
	}
	return id, nil
}
