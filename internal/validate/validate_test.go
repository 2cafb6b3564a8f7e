// SPDX-License-Identifier: MIT

package validate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidator_URL(t *testing.T) {
	tests := []struct {
		name           string
		value          string
		allowedSchemes []string
		wantErr        bool
	}{
		{"valid http", "http://example.com", []string{"http", "https"}, false},
		{"valid https", "https://example.com/list.m3u", []string{"http", "https"}, false},
		{"uppercase scheme", "HTTPS://example.com", []string{"http", "https"}, false},
		{"empty url", "", []string{"http"}, true},
		{"no host", "http://", []string{"http"}, true},
		{"invalid scheme", "ftp://example.com", []string{"http", "https"}, true},
		{"no scheme", "example.com", []string{"http"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.URL("testURL", tt.value, tt.allowedSchemes)

			if tt.wantErr && v.IsValid() {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && !v.IsValid() {
				t.Errorf("unexpected error: %v", v.Err())
			}
		})
	}
}

func TestValidator_ListenAddr(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{":8080", false},
		{"127.0.0.1:0", false},
		{"[::1]:443", false},
		{"8080", true},
		{":http", true},
		{":70000", true},
	}
	for _, tt := range tests {
		v := New()
		v.ListenAddr("ListenAddr", tt.addr)
		if tt.wantErr == v.IsValid() {
			t.Errorf("ListenAddr(%q) valid=%v, wantErr=%v", tt.addr, v.IsValid(), tt.wantErr)
		}
	}
}

func TestValidator_RangeAndFloatRange(t *testing.T) {
	v := New()
	v.Range("a", 5, 1, 10)
	v.FloatRange("b", 0.5, 0, 1)
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}

	v.Range("a", 11, 1, 10)
	v.FloatRange("b", 1.5, 0, 1)
	if got := len(v.Errors()); got != 2 {
		t.Fatalf("expected 2 errors, got %d", got)
	}
}

func TestValidator_Directory(t *testing.T) {
	root := t.TempDir()

	v := New()
	created := filepath.Join(root, "new", "dir")
	v.Directory("DataDir", created, false)
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}
	if info, err := os.Stat(created); err != nil || !info.IsDir() {
		t.Fatalf("expected directory to be created: %v", err)
	}

	v = New()
	v.Directory("DataDir", filepath.Join(root, "missing"), true)
	if v.IsValid() {
		t.Error("expected error for missing directory")
	}

	file := filepath.Join(root, "file")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	v = New()
	v.Directory("DataDir", file, false)
	if v.IsValid() {
		t.Error("expected error for file path")
	}

	v = New()
	v.Directory("DataDir", "a/../b", false)
	if v.IsValid() {
		t.Error("expected error for traversal")
	}
}

func TestValidator_OneOfAndNotEmpty(t *testing.T) {
	v := New()
	v.OneOf("Backend", "file", []string{"file", "redis"})
	v.NotEmpty("Name", "x")
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}

	v.OneOf("Backend", "mongo", []string{"file", "redis"})
	v.NotEmpty("Name", "   ")
	v.NonNegative("Bytes", -1)
	v.Positive("Burst", 0)
	if got := len(v.Errors()); got != 4 {
		t.Fatalf("expected 4 errors, got %d", got)
	}
}

func TestValidationError_Format(t *testing.T) {
	v := New()
	if v.Err() != nil {
		t.Fatal("expected nil error for valid validator")
	}

	v.AddError("A", "bad", 1)
	if got := v.Err().Error(); got != "validation failed for A: bad" {
		t.Errorf("unexpected single error message %q", got)
	}

	v.AddError("B", "worse", 2)
	err := v.Err()
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("expected joined message, got %q", err.Error())
	}

	var ve ValidationError
	if !errors.As(err, &ve) || len(ve.Errors()) != 2 {
		t.Errorf("expected ValidationError with 2 errors, got %#v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, s := range []string{"debug", "info", "warn", "error"} {
		if _, err := ParseLogLevel(s); err != nil {
			t.Errorf("ParseLogLevel(%q) unexpected error: %v", s, err)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}
