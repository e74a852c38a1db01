package identity

import (
	"testing"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid-redis", "redis://localhost:6379", false},
		{"valid-with-db", "redis://localhost:6379/2", false},
		{"empty", "", true},
		{"wrong-scheme", "http://localhost:6379", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRedisMemo_UnreachableHost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping unreachable host test in short mode")
	}
	if _, err := NewRedisMemo(t.Context(), "redis://localhost:59999", 0); err == nil {
		t.Fatal("NewRedisMemo() should return error for unreachable host")
	}
}

func TestRedisKey(t *testing.T) {
	if got := redisKey(42); got != "resolvedStudent:42" {
		t.Fatalf("redisKey = %q", got)
	}
}
