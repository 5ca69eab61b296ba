package domain

import (
	"encoding/json"
	"testing"
)

func TestPrice_UnmarshalRounds(t *testing.T) {
	tests := []struct {
		in   string
		want Price
	}{
		{"0.99", 9900},
		{"0", 0},
		{"4.9999", 49999},
		{"1.23456", 12346}, // rounded half away from zero
		{"1.23454", 12345},
		{"-1.0", -10000}, // parsing succeeds; Validate rejects it
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var p Price
			if err := json.Unmarshal([]byte(tt.in), &p); err != nil {
				t.Fatalf("Unmarshal(%q) error = %v", tt.in, err)
			}
			if p != tt.want {
				t.Errorf("Unmarshal(%q) = %d, want %d", tt.in, p, tt.want)
			}
		})
	}
}

func TestPrice_UnmarshalRejectsNonNumber(t *testing.T) {
	var p Price
	if err := json.Unmarshal([]byte(`"free"`), &p); err == nil {
		t.Error("Unmarshal of a string succeeded, want error")
	}
}

func TestPrice_MarshalRoundTrip(t *testing.T) {
	tests := []struct {
		p    Price
		want string
	}{
		{9900, "0.99"},
		{0, "0"},
		{12346, "1.2346"},
		{10000, "1"},
	}

	for _, tt := range tests {
		b, err := json.Marshal(tt.p)
		if err != nil {
			t.Fatalf("Marshal(%d) error = %v", tt.p, err)
		}
		if string(b) != tt.want {
			t.Errorf("Marshal(%d) = %s, want %s", tt.p, b, tt.want)
		}
	}
}
