package middleware

import (
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tidwall/gjson"

	"jph-proxy-go/internal/model"
)

const jsonBodyKey = "jph.json_body"

var emptyObject = []byte("{}")

// JSONBody returns an Echo middleware that reads application/json request
// bodies once and stores them for handlers (see Body). Only a top-level object
// or array is accepted; anything else is rejected with 400. Requests without a
// JSON body are treated as "{}".
func JSONBody(logger *slog.Logger) echo.MiddlewareFunc {
	logger = logger.With("component", "json_body")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody || !isJSON(req.Header.Get(echo.HeaderContentType)) {
				c.Set(jsonBodyKey, emptyObject)
				return next(c)
			}

			data, err := io.ReadAll(req.Body)
			if err != nil {
				// BodyLimit surfaces an *echo.HTTPError (413) through the reader.
				return err
			}

			if len(data) == 0 {
				c.Set(jsonBodyKey, emptyObject)
				return next(c)
			}

			parsed := gjson.ParseBytes(data)
			if !gjson.ValidBytes(data) || !(parsed.IsObject() || parsed.IsArray()) {
				logger.Debug("rejecting malformed JSON body",
					"method", req.Method,
					"path", req.URL.Path,
				)
				return c.JSON(http.StatusBadRequest, model.MessageBody{Message: "Invalid JSON body."})
			}

			c.Set(jsonBodyKey, data)
			return next(c)
		}
	}
}

// Body returns the JSON body stored by JSONBody, or "{}" when none was parsed.
func Body(c echo.Context) []byte {
	if b, ok := c.Get(jsonBodyKey).([]byte); ok {
		return b
	}
	return emptyObject
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == echo.MIMEApplicationJSON
}
