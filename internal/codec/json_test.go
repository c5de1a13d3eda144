package codec

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestSerialize_NoHTMLEscape(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", http.NoBody), rec)

	if err := (JSONSerializer{}).Serialize(c, []string{"<a@b.c> commented: x & y"}, ""); err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	want := `["<a@b.c> commented: x & y"]` + "\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestSerialize_Indent(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", http.NoBody), rec)

	if err := (JSONSerializer{}).Serialize(c, map[string]int{"a": 1}, "  "); err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	want := "{\n  \"a\": 1\n}\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestDeserialize(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"valid", `{"title":"t"}`, 0},
		{"syntax error", `{"title":`, http.StatusBadRequest},
		{"type error", `{"title":1}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			c := e.NewContext(req, httptest.NewRecorder())

			var dst struct {
				Title string `json:"title"`
			}
			err := (JSONSerializer{}).Deserialize(c, &dst)

			if tt.wantCode == 0 {
				if err != nil {
					t.Fatalf("Deserialize() error = %v", err)
				}
				if dst.Title != "t" {
					t.Errorf("Title = %q, want %q", dst.Title, "t")
				}
				return
			}

			var he *echo.HTTPError
			if !errors.As(err, &he) {
				t.Fatalf("Deserialize() error = %v, want *echo.HTTPError", err)
			}
			if he.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", he.Code, tt.wantCode)
			}
		})
	}
}

func TestMarshal(t *testing.T) {
	got, err := Marshal("a <b> & c")
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(got) != `"a <b> & c"` {
		t.Errorf("Marshal() = %q, want %q", string(got), `"a <b> & c"`)
	}
}
