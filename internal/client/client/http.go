package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/idkeeper/internal/common"
)

// HTTPClient implements Client over the server's JSON API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient validates baseURL and returns a client whose requests are
// bounded by timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *HTTPClient) Register(ctx context.Context, name, email string, password []byte) (*Account, error) {
	var acc Account
	body := credentials{Name: name, Email: email, Password: string(password)}
	if err := s.do(ctx, http.MethodPost, "/register", "", body, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *HTTPClient) Login(ctx context.Context, email string, password []byte) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := credentials{Email: email, Password: string(password)}
	if err := s.do(ctx, http.MethodPost, "/login", "", body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: empty token in login response", ErrServer)
	}
	return resp.Token, nil
}

func (s *HTTPClient) Me(ctx context.Context, token string) (*Account, error) {
	var acc Account
	if err := s.do(ctx, http.MethodGet, "/me", token, nil, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *HTTPClient) Users(ctx context.Context, token string) ([]Account, error) {
	var accs []Account
	if err := s.do(ctx, http.MethodGet, "/users", token, nil, &accs); err != nil {
		return nil, err
	}
	return accs, nil
}

// Ping reports whether the server and its store are reachable.
func (s *HTTPClient) Ping(ctx context.Context) error {
	return s.do(ctx, http.MethodGet, "/healthz", "", nil, nil)
}

func (s *HTTPClient) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapStatus(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %w", ErrServer, err)
	}
	return nil
}

func mapStatus(resp *http.Response) error {
	var eb errorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&eb)
	msg := eb.Error
	if msg == "" {
		msg = resp.Status
	}

	var sentinel error
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		sentinel = ErrBadRequest
	case resp.StatusCode == http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		sentinel = ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		sentinel = ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		sentinel = ErrConflict
	case resp.StatusCode == http.StatusServiceUnavailable:
		sentinel = ErrUnavailable
	default:
		sentinel = ErrServer
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}
