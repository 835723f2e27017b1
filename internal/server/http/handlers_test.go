package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/idkeeper/internal/common"
	"github.com/dmitrijs2005/idkeeper/internal/logging"
	"github.com/dmitrijs2005/idkeeper/internal/server/auth"
	"github.com/dmitrijs2005/idkeeper/internal/server/models"
	"github.com/dmitrijs2005/idkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeUsers struct {
	registerIn services.RegisterInput
	updateIn   services.UpdateInput
	callerID   int64
	acc        *models.Account
	token      string
	err        error
}

func (f *fakeUsers) Register(_ context.Context, in services.RegisterInput) (*models.Account, error) {
	f.registerIn = in
	return f.acc, f.err
}

func (f *fakeUsers) Login(context.Context, string, string) (string, error) {
	return f.token, f.err
}

func (f *fakeUsers) List(context.Context) ([]*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*models.Account{f.acc}, nil
}

func (f *fakeUsers) Get(_ context.Context, id int64) (*models.Account, error) {
	return f.acc, f.err
}

func (f *fakeUsers) Update(_ context.Context, callerID, _ int64, in services.UpdateInput) (*models.Account, error) {
	f.callerID = callerID
	f.updateIn = in
	return f.acc, f.err
}

func (f *fakeUsers) Delete(_ context.Context, callerID, _ int64) (*models.Account, error) {
	f.callerID = callerID
	return f.acc, f.err
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func newTestRouter(t *testing.T, users UserService, store Pinger) (*gin.Engine, *auth.Issuer) {
	t.Helper()
	key, err := auth.NewSigningKey(testSecret)
	require.NoError(t, err)
	iss, err := auth.NewIssuer(key)
	require.NoError(t, err)
	ver, err := auth.NewVerifier(key)
	require.NoError(t, err)
	return NewRouter(users, auth.NewGate(ver), store, logging.Nop{}), iss
}

func do(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e), w.Body.String())
	return e.Error
}

func TestRegisterHandler(t *testing.T) {
	acc := &models.Account{ID: 1, Name: "A", Email: "a@x.io", CreatedAt: time.Unix(0, 0).UTC()}
	fu := &fakeUsers{acc: acc}
	r, _ := newTestRouter(t, fu, fakePinger{})

	w := do(r, http.MethodPost, "/register", `{"name":"A","email":"a@x.io","password":"pw"}`, "")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, services.RegisterInput{Name: "A", Email: "a@x.io", Password: "pw"}, fu.registerIn)
	assert.NotContains(t, w.Body.String(), "pw")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(r, http.MethodPost, "/register", `{"name":`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", errorBody(t, w))

	fu.err = common.ErrMissingField
	w = do(r, http.MethodPost, "/register", `{"email":"a@x.io"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Name, email, and password are required", errorBody(t, w))

	fu.err = common.ErrDuplicateIdentifier
	w = do(r, http.MethodPost, "/register", `{"name":"A","email":"a@x.io","password":"pw"}`, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	fu.err = errors.New("db down")
	w = do(r, http.MethodPost, "/register", `{"name":"A","email":"a@x.io","password":"pw"}`, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Something went wrong", errorBody(t, w))
}

func TestLoginHandler(t *testing.T) {
	fu := &fakeUsers{token: "t.o.k"}
	r, _ := newTestRouter(t, fu, fakePinger{})

	w := do(r, http.MethodPost, "/login", `{"email":"a@x.io","password":"pw"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"token":"t.o.k"}`, w.Body.String())

	fu.err = common.ErrInvalidCredentials
	w = do(r, http.MethodPost, "/login", `{"email":"a@x.io","password":"bad"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid email or password"}`, w.Body.String())

	w = do(r, http.MethodPost, "/login", `{"email":42}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGate_RejectsUniformly(t *testing.T) {
	fu := &fakeUsers{acc: &models.Account{ID: 1}}
	r, iss := newTestRouter(t, fu, fakePinger{})

	expired, err := iss.Issue(auth.Claims{SubjectID: 1, Identifier: "a@x.io"}, -time.Second)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"missing":   "",
		"garbage":   "abc",
		"expired":   expired,
		"wrong alg": "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiIxIn0.",
	} {
		w := do(r, http.MethodGet, "/users", "", tok)
		assert.Equal(t, http.StatusForbidden, w.Code, name)
		assert.JSONEq(t, `{"error":"Forbidden"}`, w.Body.String(), name)
	}

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwdw==")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProtectedRoutes(t *testing.T) {
	acc := &models.Account{ID: 7, Name: "A", Email: "a@x.io"}
	fu := &fakeUsers{acc: acc}
	r, iss := newTestRouter(t, fu, fakePinger{})

	tok, err := iss.Issue(auth.Claims{SubjectID: 7, Identifier: "a@x.io"}, time.Hour)
	require.NoError(t, err)

	w := do(r, http.MethodGet, "/me", "", tok)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/users", "", tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w = do(r, http.MethodGet, "/users/7", "", tok)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/users/abc", "", tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid user id", errorBody(t, w))

	w = do(r, http.MethodPut, "/users/7", `{"name":"B"}`, tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(7), fu.callerID)
	require.NotNil(t, fu.updateIn.Name)
	assert.Equal(t, "B", *fu.updateIn.Name)
	assert.Nil(t, fu.updateIn.Email)

	w = do(r, http.MethodPut, "/users/7", `not json`, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodDelete, "/users/7", "", tok)
	assert.Equal(t, http.StatusOK, w.Code)

	fu.err = common.ErrForbidden
	w = do(r, http.MethodDelete, "/users/8", "", tok)
	assert.Equal(t, http.StatusForbidden, w.Code)

	fu.err = common.ErrorNotFound
	w = do(r, http.MethodGet, "/users/99", "", tok)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", errorBody(t, w))
}

func TestHealthzAndNoRoute(t *testing.T) {
	r, _ := newTestRouter(t, &fakeUsers{}, fakePinger{})
	w := do(r, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	r, _ = newTestRouter(t, &fakeUsers{}, fakePinger{err: errors.New("down")})
	w = do(r, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(r, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestIDPropagates(t *testing.T) {
	r, _ := newTestRouter(t, &fakeUsers{}, fakePinger{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	r, _ := newTestRouter(t, &fakeUsers{}, fakePinger{})
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	w := do(r, http.MethodGet, "/panic", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Something went wrong"}`, w.Body.String())
}

func TestClaimsHandlers_WithoutGateReject(t *testing.T) {
	users := &fakeUsers{acc: &models.Account{ID: 1}, callerID: -1}
	h := &handler{users: users, store: fakePinger{}, log: logging.Nop{}}

	r := gin.New()
	r.GET("/me", h.me)
	r.PUT("/users/:id", h.updateUser)
	r.DELETE("/users/:id", h.deleteUser)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/me", ""},
		{http.MethodPut, "/users/1", `{"name":"x"}`},
		{http.MethodDelete, "/users/1", ""},
	} {
		var w *httptest.ResponseRecorder
		require.NotPanics(t, func() { w = do(r, tc.method, tc.path, tc.body, "") }, tc.method)
		assert.Equal(t, http.StatusForbidden, w.Code, tc.method)
		assert.JSONEq(t, `{"error":"Forbidden"}`, w.Body.String())
	}
	assert.Equal(t, int64(-1), users.callerID, "service never reached")
}
