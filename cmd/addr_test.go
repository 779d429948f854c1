package cmd

import "testing"

func TestValidateAddr(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"127.0.0.1:8080", false},
		{"localhost:8080", false},
		{":8080", false},
		{"0.0.0.0:0", false},
		{"[::1]:8080", false},
		{"127.0.0.1", true},
		{"127.0.0.1:", true},
		{"127.0.0.1:abc", true},
		{"127.0.0.1:70000", true},
		{"bad host:8080", true},
	}

	for _, tt := range tests {
		err := validateAddr(tt.addr)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateAddr(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
		}
	}
}

func TestParseRateBurst(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"", 0},
		{"100", 100},
		{"-5", 0},
		{"abc", 0},
	}

	for _, tt := range tests {
		t.Setenv("KOLMO_RATE_BURST", tt.value)
		if got := parseRateBurst(); got != tt.want {
			t.Errorf("parseRateBurst() with %q = %d, want %d", tt.value, got, tt.want)
		}
	}
}
