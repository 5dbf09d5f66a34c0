package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Men's T-Shirt!", "mens-t-shirt"},
		{"  Desk   Lamps ", "desk-lamps"},
		{"Chairs", "chairs"},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := GenerateSlug(tt.in); got != tt.want {
			t.Errorf("GenerateSlug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in   string
		def  int
		want int
	}{
		{"", 1, 1},
		{" 7 ", 1, 7},
		{"seven", 1, 1},
		{"-3", 1, -3},
	}
	for _, tt := range tests {
		if got := ParseInt(tt.in, tt.def); got != tt.want {
			t.Errorf("ParseInt(%q, %d) = %d, want %d", tt.in, tt.def, got, tt.want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Page int `json:"page"`
	}

	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{"valid", `{"page":4}`, 4, false},
		{"empty keeps defaults", ``, 9, false},
		{"malformed", `{"page":`, 9, true},
		{"too large", `{"page":1,"pad":"` + strings.Repeat("x", 64) + `"}`, 9, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.raw))
			v := body{Page: 9}
			err := DecodeJSON(req, 32, &v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if v.Page != tt.want {
				t.Errorf("Page = %d, want %d", v.Page, tt.want)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusNotFound, "Browse session not found")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Browse session not found"}` {
		t.Errorf("body = %s", got)
	}
}
