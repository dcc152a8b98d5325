package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"moneymind/internal/core"
)

func TestDecodeJSON_Amount(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCents int64
		wantSet   bool
		wantField string
	}{
		{name: "number", body: `{"amount": 12.5}`, wantCents: 1250, wantSet: true},
		{name: "string", body: `{"amount": "12.345"}`, wantCents: 1235, wantSet: true},
		{name: "comma decimal", body: `{"amount": "7,10"}`, wantCents: 710, wantSet: true},
		{name: "zero", body: `{"amount": 0}`, wantCents: 0, wantSet: true},
		{name: "missing", body: `{}`, wantSet: false},
		{name: "null", body: `{"amount": null}`, wantSet: false},
		{name: "negative", body: `{"amount": -1}`, wantField: "amount"},
		{name: "text", body: `{"amount": "ten"}`, wantField: "amount"},
		{name: "object", body: `{"amount": {}}`, wantField: "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst struct {
				Amount Amount `json:"amount"`
			}
			dst.Amount = named("amount")
			err := DecodeJSON(httptest.NewRecorder(), req, &dst)

			if tt.wantField != "" {
				var verr *core.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected validation error, got %v", err)
				}
				if verr.Field != tt.wantField {
					t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if dst.Amount.Set != tt.wantSet {
				t.Errorf("Set = %v, want %v", dst.Amount.Set, tt.wantSet)
			}
			if dst.Amount.Money.Cents != tt.wantCents {
				t.Errorf("Cents = %d, want %d", dst.Amount.Money.Cents, tt.wantCents)
			}
		})
	}
}

func TestDecodeJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"malformed", `{"name": `},
		{"trailing data", `{} {}`},
		{"wrong type", `{"name": 5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst struct {
				Name string `json:"name"`
			}
			err := DecodeJSON(httptest.NewRecorder(), req, &dst)
			if !errors.Is(err, core.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	body := `{"name": "` + strings.Repeat("x", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dst struct {
		Name string `json:"name"`
	}
	err := DecodeJSON(httptest.NewRecorder(), req, &dst)
	var verr *core.ValidationError
	if !errors.As(err, &verr) || verr.Field != "body" {
		t.Fatalf("expected body validation error, got %v", err)
	}
}

func TestParseDateField(t *testing.T) {
	d, err := ParseDateField("date", "2024-02-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-02-29" {
		t.Errorf("date = %s", d)
	}

	d, err = ParseDateField("date", "2024-02-29T18:30:00Z")
	if err != nil || d.String() != "2024-02-29" {
		t.Errorf("timestamp: got %s, %v", d, err)
	}

	d, err = ParseDateField("date", "  ")
	if err != nil || !d.IsZero() {
		t.Errorf("empty: got %s, %v", d, err)
	}

	_, err = ParseDateField("deadline", "29/02/2024")
	var verr *core.ValidationError
	if !errors.As(err, &verr) || verr.Field != "deadline" {
		t.Errorf("expected deadline validation error, got %v", err)
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		value   string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetPathValue("id", tt.value)
		got, err := PathID(req)
		if tt.wantErr {
			if !errors.Is(err, core.ErrNotFound) {
				t.Errorf("PathID(%q) error = %v, want ErrNotFound", tt.value, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("PathID(%q) = %d, %v", tt.value, got, err)
		}
	}
}

func TestParseYear(t *testing.T) {
	y, err := ParseYear(url.Values{})
	if err != nil || y != time.Now().UTC().Year() {
		t.Errorf("default year = %d, %v", y, err)
	}

	y, err = ParseYear(url.Values{"year": {"0"}})
	if err != nil || y != 0 {
		t.Errorf("year 0 = %d, %v", y, err)
	}

	for _, bad := range []string{"abc", "-1", "10000"} {
		if _, err := ParseYear(url.Values{"year": {bad}}); !errors.Is(err, core.ErrValidation) {
			t.Errorf("ParseYear(%q) error = %v, want ErrValidation", bad, err)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  hello  ", "hello"},
		{"line1\nline2", "line1\nline2"},
		{"bell\x07char", "bellchar"},
		{"null\x00byte", "nullbyte"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.input); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
