package services_test

import (
	"errors"
	"strings"
	"testing"

	"marquee/internal/services"
)

func TestWrapPreservesMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalAPI, "places", "search", "query failed", base)
	if !errors.Is(err, services.ErrExternalAPI) {
		t.Fatalf("expected wrapped error to match marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to match cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "places: search: query failed") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "gitsync", "pull", "", nil)
	if !errors.Is(err, services.ErrSyncFailure) {
		t.Fatalf("expected default sync failure marker, got %v", err)
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(services.ErrConfiguration, "", "", "", nil)
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %v", err)
	}
}
