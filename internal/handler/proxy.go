package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"jph-proxy-go/internal/middleware"
	"jph-proxy-go/internal/model"
	"jph-proxy-go/internal/service"
)

const (
	msgExternalAPI   = "Error fetching data from external API."
	msgNetworkError  = "A network error occurred."
	msgCreatePost    = "Failed to create post."
	msgTodos         = "Failed fetch todos."
	msgFunFact       = "Could not fetch fun fact"
	errFetchComments = "Error fetching comments"
)

// ProxyHandler serves the proxied routes. Each handler performs exactly one
// upstream call through the service and maps its outcome to a response.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Root answers GET / with a plain greeting.
func (h *ProxyHandler) Root(c echo.Context) error {
	return c.String(http.StatusOK, "Root Route!")
}

// Comments answers GET /api/comments.
func (h *ProxyHandler) Comments(c echo.Context) error {
	comments, err := h.service.Comments(c.Request().Context())
	if err != nil {
		h.logError(c, "fetching comments", err)
		return c.JSON(http.StatusBadGateway, model.ErrorBody{Error: errFetchComments})
	}
	return c.JSON(http.StatusOK, comments)
}

// User answers GET /api/users/:id.
func (h *ProxyHandler) User(c echo.Context) error {
	id := c.Param("id")

	user, err := h.service.User(c.Request().Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		return c.JSON(http.StatusNotFound, model.ErrorBody{Error: fmt.Sprintf("User not found with id %s", id)})
	}
	if err != nil {
		h.logError(c, "fetching user", err, "id", id)
		return c.JSON(http.StatusBadGateway, model.ErrorBody{Error: fmt.Sprintf("Error fetching user with id %s", id)})
	}
	return c.JSONBlob(http.StatusOK, user)
}

// Users answers GET /api/users, passing the upstream error status through.
func (h *ProxyHandler) Users(c echo.Context) error {
	users, err := h.service.Users(c.Request().Context())
	if err != nil {
		if status, ok := upstreamStatus(err); ok {
			h.logAPIError(c, err)
			return c.JSON(status, model.MessageBody{Message: msgExternalAPI})
		}
		h.logError(c, "network error", err)
		return c.JSON(http.StatusInternalServerError, model.MessageBody{Message: msgNetworkError})
	}
	return c.JSONBlob(http.StatusOK, users)
}

// CreatePost answers POST /api/posts.
func (h *ProxyHandler) CreatePost(c echo.Context) error {
	body := middleware.Body(c)
	h.logger.Debug("incoming data", "path", c.Request().URL.Path, "body", string(body))

	post, err := h.service.CreatePost(c.Request().Context(), body)
	if err != nil {
		h.logError(c, "creating post", err)
		return c.JSON(http.StatusInternalServerError, model.MessageBody{Message: msgCreatePost})
	}
	return c.JSONBlob(http.StatusCreated, post)
}

// Todos answers GET /api/todos.
func (h *ProxyHandler) Todos(c echo.Context) error {
	todos, err := h.service.Todos(c.Request().Context())
	if err != nil {
		h.logError(c, "fetching todos", err)
		return c.JSON(http.StatusInternalServerError, model.MessageBody{Message: msgTodos})
	}
	return c.JSONBlob(http.StatusOK, todos)
}

// CreateTodo answers POST /api/todos.
func (h *ProxyHandler) CreateTodo(c echo.Context) error {
	body := middleware.Body(c)
	h.logger.Debug("incoming data", "path", c.Request().URL.Path, "body", string(body))

	todo, err := h.service.CreateTodo(c.Request().Context(), body)
	if err != nil {
		h.logError(c, "creating todo", err)
		return c.JSON(http.StatusInternalServerError, model.MessageBody{Message: msgTodos})
	}
	return c.JSONBlob(http.StatusCreated, todo)
}

// FunFact answers GET /api/fun-fact with only the text of a random fact.
func (h *ProxyHandler) FunFact(c echo.Context) error {
	fact, err := h.service.FunFact(c.Request().Context())
	if err != nil {
		if status, ok := upstreamStatus(err); ok {
			h.logAPIError(c, err)
			return c.JSON(status, model.MessageBody{Message: msgExternalAPI})
		}
		h.logError(c, "fetching fun fact", err)
		return c.JSON(http.StatusInternalServerError, model.MessageBody{Message: msgFunFact})
	}
	return c.JSON(http.StatusOK, fact)
}

// upstreamStatus returns the upstream status carried by err, if any.
func upstreamStatus(err error) (int, bool) {
	var ue *service.UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode, true
	}
	return 0, false
}

func (h *ProxyHandler) logError(c echo.Context, msg string, err error, attrs ...any) {
	attrs = append(attrs, "err", err, "path", c.Request().URL.Path)
	h.logger.Error(msg, attrs...)
}

func (h *ProxyHandler) logAPIError(c echo.Context, err error) {
	var ue *service.UpstreamError
	if !errors.As(err, &ue) {
		return
	}
	h.logger.Warn("api error",
		"status", ue.StatusCode,
		"upstream_path", ue.Path,
		"upstream_body", string(ue.Body),
		"path", c.Request().URL.Path,
	)
}
