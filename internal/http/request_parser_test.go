package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newParser(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return p
}

func TestRequestBodyParser_JSON(t *testing.T) {
	p := newParser(t, "application/json", `{"description":"  Coffee ","amount":12.10,"type":"expense"}`)

	if !p.IsJSON() {
		t.Fatal("IsJSON() = false, want true")
	}
	if got := p.Get("description"); got != "  Coffee " {
		t.Errorf("description = %q", got)
	}
	// The number keeps its literal form, trailing zero included.
	if got := p.Get("amount"); got != "12.10" {
		t.Errorf("amount = %q, want %q", got, "12.10")
	}
	if got := p.Get("missing"); got != "" {
		t.Errorf("missing = %q, want empty", got)
	}
}

func TestRequestBodyParser_JSONWithoutContentType(t *testing.T) {
	p := newParser(t, "", `{"amount":"5"}`)
	if !p.IsJSON() || p.Get("amount") != "5" {
		t.Errorf("expected JSON detection from body, got amount %q", p.Get("amount"))
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	p := newParser(t, "application/x-www-form-urlencoded", "description=Rent%00&amount=400&type=expense")

	if p.IsJSON() {
		t.Fatal("IsJSON() = true, want false")
	}
	if got := p.Get("description"); got != "Rent" {
		t.Errorf("description = %q, want control characters stripped", got)
	}
	if got := p.Get("amount"); got != "400" {
		t.Errorf("amount = %q", got)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	p := newParser(t, "", "")
	if got := p.Get("description"); got != "" {
		t.Errorf("description = %q, want empty", got)
	}
}

func TestRequestBodyParser_Errors(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"broken json", "application/json", `{"amount":`},
		{"json array", "application/json", `[1,2]`},
		{"too large", "application/x-www-form-urlencoded", "description=" + strings.Repeat("a", maxBodyBytes)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			if err := NewRequestBodyParser(req).Parse(); err == nil {
				t.Error("Parse() error = nil, want error")
			}
		})
	}
}
