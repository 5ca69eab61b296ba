package jsonlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", LevelInfo, false},
		{"info", LevelInfo, false},
		{"DEBUG", LevelDebug, false},
		{"Error", LevelError, false},
		{"OFF", LevelOff, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogger_MinLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelError)

	l.Info("ignored", nil)
	if buf.Len() != 0 {
		t.Fatalf("info logged below min level: %s", buf.String())
	}

	l.Error(errors.New("boom"), Fields{"component": "test"})

	var e struct {
		Level   string            `json:"level"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if e.Level != "ERROR" || e.Message != "boom" {
		t.Errorf("entry = %+v, want ERROR boom", e)
	}
	if e.Fields["component"] != "test" {
		t.Errorf("fields = %v, want component=test", e.Fields)
	}
}

func TestLogger_OneLinePerEntry(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelInfo)

	l.Info("a", nil)
	l.Info("b", nil)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Errorf("lines = %d, want 2", len(lines))
	}
}
