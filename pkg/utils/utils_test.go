package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// --- CategorizeError Tests ---

func TestCategorizeError_NilError(t *testing.T) {
	result := CategorizeError(nil)
	if result != "None" {
		t.Errorf("CategorizeError(nil) = %q, want %q", result, "None")
	}
}

func TestCategorizeError_SentinelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"RobotsDisallowed", ErrRobotsDisallowed, "Policy_Robots"},
		{"Extraction", ErrExtraction, "Content_Extraction"},
		{"MarkdownConversion", ErrMarkdownConversion, "Content_Markdown"},
		{"Database", ErrDatabase, "Database_Other"},
		{"ObjectStorage", ErrObjectStorage, "Storage_Other"},
		{"InvalidPDF", ErrInvalidPDF, "Upload_InvalidPDF"},
		{"NotFound", ErrNotFound, "Store_NotFound"},
		{"Duplicate", ErrDuplicate, "Import_Duplicate"},
		{"Adaptation", ErrAdaptation, "Adapt_ModelError"},
		{"RequestCreation", ErrRequestCreation, "Internal_RequestCreation"},
		{"ResponseBodyRead", ErrResponseBodyRead, "Network_BodyRead"},
		{"ConfigValidation", ErrConfigValidation, "Config_Validation"},
		{"ServerHTTPError", ErrServerHTTPError, "HTTP_5xx"},
		{"OtherHTTPError", ErrOtherHTTPError, "HTTP_OtherStatus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CategorizeError(tt.err)
			if result != tt.expected {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestCategorizeError_WrappedErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "WrappedRobotsDisallowed",
			err:      fmt.Errorf("fetching page: %w", ErrRobotsDisallowed),
			expected: "Policy_Robots",
		},
		{
			name:     "DoubleWrapped",
			err:      fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", ErrDuplicate)),
			expected: "Import_Duplicate",
		},
		{
			name:     "ClientHTTP404",
			err:      fmt.Errorf("HTTP status 404 : %w", ErrClientHTTPError),
			expected: "HTTP_404",
		},
		{
			name:     "ClientHTTPGeneric",
			err:      fmt.Errorf("HTTP status 418 : %w", ErrClientHTTPError),
			expected: "HTTP_4xx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CategorizeError(tt.err)
			if result != tt.expected {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestCategorizeError_ContextErrors(t *testing.T) {
	if got := CategorizeError(context.Canceled); got != "System_ContextCanceled" {
		t.Errorf("CategorizeError(context.Canceled) = %q", got)
	}
	if got := CategorizeError(context.DeadlineExceeded); got != "System_ContextDeadlineExceeded" {
		t.Errorf("CategorizeError(context.DeadlineExceeded) = %q", got)
	}
}

func TestCategorizeError_Unknown(t *testing.T) {
	if got := CategorizeError(errors.New("something odd")); got != "Unknown" {
		t.Errorf("CategorizeError(unknown) = %q, want Unknown", got)
	}
}

// --- WrapErrorf Tests ---

func TestWrapErrorf_NilError(t *testing.T) {
	result := WrapErrorf(nil, "some context")
	if result != nil {
		t.Errorf("WrapErrorf(nil, ...) = %v, want nil", result)
	}
}

func TestWrapErrorf_WrapsError(t *testing.T) {
	wrapped := WrapErrorf(ErrDatabase, "context %s", "value")
	if wrapped == nil {
		t.Fatal("WrapErrorf() returned nil, want error")
	}
	if !errors.Is(wrapped, ErrDatabase) {
		t.Error("WrapErrorf() result should wrap the sentinel")
	}
	if !strings.Contains(wrapped.Error(), "context value") {
		t.Errorf("WrapErrorf() message = %q, missing formatted context", wrapped.Error())
	}
}

// --- Hash Tests ---

func TestCalculateStringSHA256(t *testing.T) {
	// Known vector: sha256("")
	empty := CalculateStringSHA256("")
	if empty != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("CalculateStringSHA256(\"\") = %q", empty)
	}

	a := CalculateStringSHA256("hello")
	b := CalculateStringSHA256("hello")
	c := CalculateStringSHA256("hello!")
	if a != b {
		t.Error("same input produced different hashes")
	}
	if a == c {
		t.Error("different inputs produced the same hash")
	}
}

func TestCalculateReaderSHA256_MatchesStringHash(t *testing.T) {
	want := CalculateStringSHA256("some document content")
	got, err := CalculateReaderSHA256(strings.NewReader("some document content"))
	if err != nil {
		t.Fatalf("CalculateReaderSHA256() error: %v", err)
	}
	if got != want {
		t.Errorf("CalculateReaderSHA256() = %q, want %q", got, want)
	}
}
