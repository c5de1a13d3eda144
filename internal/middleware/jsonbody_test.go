package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func newBodyEcho(got *string) *echo.Echo {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := echo.New()
	e.Use(echomw.BodyLimit("64B"))
	e.Use(JSONBody(logger))
	e.POST("/api/posts", func(c echo.Context) error {
		*got = string(Body(c))
		return c.NoContent(http.StatusCreated)
	})
	return e
}

func TestJSONBody(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantBody    string
	}{
		{"object", "application/json", `{"title":"t","userId":1}`, http.StatusCreated, `{"title":"t","userId":1}`},
		{"array", "application/json", `[1,2,3]`, http.StatusCreated, `[1,2,3]`},
		{"charset parameter", "application/json; charset=utf-8", `{"a":1}`, http.StatusCreated, `{"a":1}`},
		{"empty json body", "application/json", ``, http.StatusCreated, `{}`},
		{"non-json content type", "text/plain", `hello`, http.StatusCreated, `{}`},
		{"no content type", "", `{"a":1}`, http.StatusCreated, `{}`},
		{"malformed", "application/json", `{"title":`, http.StatusBadRequest, ""},
		{"scalar rejected", "application/json", `"just a string"`, http.StatusBadRequest, ""},
		{"too large", "application/json", `{"a":"` + strings.Repeat("x", 100) + `"}`, http.StatusRequestEntityTooLarge, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			e := newBodyEcho(&got)

			req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set(echo.HeaderContentType, tt.contentType)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got != tt.wantBody {
				t.Errorf("handler body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestJSONBody_MalformedMessage(t *testing.T) {
	var got string
	e := newBodyEcho(&got)

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`nope`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["message"] != "Invalid JSON body." {
		t.Errorf("message = %q, want %q", body["message"], "Invalid JSON body.")
	}
}

func TestBody_DefaultsToEmptyObject(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", http.NoBody), httptest.NewRecorder())

	if got := string(Body(c)); got != "{}" {
		t.Errorf("Body() = %q, want %q", got, "{}")
	}
}
