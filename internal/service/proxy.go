// Package service implements the upstream calls and response shaping behind each route.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"jph-proxy-go/internal/client"
	"jph-proxy-go/internal/codec"
	"jph-proxy-go/internal/config"
	"jph-proxy-go/internal/model"
)

const randomFactPath = "/api/v2/facts/random"

var (
	// ErrNotFound matches an *UpstreamError carrying a 404.
	ErrNotFound = errors.New("upstream resource not found")

	// ErrMalformedBody is returned when a body that must be reshaped is not the expected JSON.
	ErrMalformedBody = errors.New("malformed upstream body")
)

// UpstreamError reports a non-2xx upstream response.
type UpstreamError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s %s returned status %d", e.Method, e.Path, e.StatusCode)
}

// Is lets errors.Is(err, ErrNotFound) match a 404 response.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// ProxyService issues the single upstream call for each route.
type ProxyService struct {
	jph    *client.Client
	facts  *client.Client
	logger *slog.Logger
}

// NewProxyService creates a ProxyService. The fact API client is derived from
// the shared client so both upstreams use one transport.
func NewProxyService(c *client.Client, cfg *config.Config, logger *slog.Logger) (*ProxyService, error) {
	facts, err := c.WithBaseURL(cfg.Facts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("facts client: %w", err)
	}
	return &ProxyService{
		jph:    c,
		facts:  facts,
		logger: logger.With("component", "proxy_service"),
	}, nil
}

// Comments returns every upstream comment rendered as "<email> commented: <name>",
// in upstream order.
func (s *ProxyService) Comments(ctx context.Context) ([]string, error) {
	resp, err := s.get(ctx, s.jph, "/comments")
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(resp.Body) {
		return nil, fmt.Errorf("comments: %w", ErrMalformedBody)
	}
	list := gjson.ParseBytes(resp.Body)
	if !list.IsArray() {
		return nil, fmt.Errorf("comments: expected array: %w", ErrMalformedBody)
	}

	items := list.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprintf("%s commented: %s", item.Get("email").String(), item.Get("name").String()))
	}
	return out, nil
}

// User returns the upstream user document for id unchanged.
func (s *ProxyService) User(ctx context.Context, id string) ([]byte, error) {
	resp, err := s.get(ctx, s.jph, "/users/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(resp.Body) {
		return nil, fmt.Errorf("user %s: %w", id, ErrMalformedBody)
	}
	return resp.Body, nil
}

// Users queries the singular /user path.
func (s *ProxyService) Users(ctx context.Context) ([]byte, error) {
	resp, err := s.get(ctx, s.jph, "/user")
	if err != nil {
		return nil, err
	}
	return asJSON(resp.Body)
}

// CreatePost forwards a new post and returns the created resource.
func (s *ProxyService) CreatePost(ctx context.Context, body []byte) ([]byte, error) {
	resp, err := s.post(ctx, s.jph, "/posts", body)
	if err != nil {
		return nil, err
	}
	return asJSON(resp.Body)
}

// Todos returns the upstream todo list.
func (s *ProxyService) Todos(ctx context.Context) ([]byte, error) {
	resp, err := s.get(ctx, s.jph, "/todos")
	if err != nil {
		return nil, err
	}
	return asJSON(resp.Body)
}

// CreateTodo forwards a new todo and returns the created resource.
func (s *ProxyService) CreateTodo(ctx context.Context, body []byte) ([]byte, error) {
	resp, err := s.post(ctx, s.jph, "/todos", body)
	if err != nil {
		return nil, err
	}
	return asJSON(resp.Body)
}

// FunFact returns the text field of a random fact. A missing field yields "".
func (s *ProxyService) FunFact(ctx context.Context) (*model.FunFact, error) {
	resp, err := s.get(ctx, s.facts, randomFactPath)
	if err != nil {
		return nil, err
	}
	return &model.FunFact{Fact: gjson.GetBytes(resp.Body, "text").String()}, nil
}

func (s *ProxyService) get(ctx context.Context, c *client.Client, path string) (*model.UpstreamResponse, error) {
	return s.call(ctx, c, http.MethodGet, path, nil)
}

func (s *ProxyService) post(ctx context.Context, c *client.Client, path string, body []byte) (*model.UpstreamResponse, error) {
	return s.call(ctx, c, http.MethodPost, path, body)
}

// call performs the one upstream request and turns a non-2xx into *UpstreamError.
func (s *ProxyService) call(ctx context.Context, c *client.Client, method, path string, body []byte) (*model.UpstreamResponse, error) {
	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if !resp.OK() {
		s.logger.Debug("upstream error status",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
		)
		return nil, &UpstreamError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}
	}
	return resp, nil
}

// asJSON passes a JSON body through untouched and wraps anything else as a
// JSON string, so the route always answers with valid JSON.
func asJSON(body []byte) ([]byte, error) {
	if gjson.ValidBytes(body) {
		return body, nil
	}
	out, err := codec.Marshal(string(body))
	if err != nil {
		return nil, fmt.Errorf("encode upstream body: %w", err)
	}
	return out, nil
}
