package services_test

import (
	"errors"
	"strings"
	"testing"

	"renamer/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("connection reset")
	err := services.Wrap(services.ErrAcquisition, "acquire", "download", "source transfer interrupted", cause)

	if !errors.Is(err, services.ErrAcquisition) {
		t.Fatalf("expected ErrAcquisition marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	for _, fragment := range []string{"acquire", "download", "source transfer interrupted", "connection reset"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("error %q missing fragment %q", err.Error(), fragment)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "submit", "check template", "no format template configured", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation marker, got %v", err)
	}
}

func TestFatalClassification(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"nil", nil, false},
		{"acquisition", services.Wrap(services.ErrAcquisition, "acquire", "", "", nil), true},
		{"transform", services.Wrap(services.ErrTransform, "tag", "", "", nil), false},
		{"duplicate", services.ErrDuplicate, false},
		{"delivery", services.Wrap(services.ErrDelivery, "deliver", "", "", nil), true},
		{"validation", services.ErrValidation, true},
	}
	for _, tc := range cases {
		if got := services.Fatal(tc.err); got != tc.fatal {
			t.Errorf("%s: Fatal = %v, want %v", tc.name, got, tc.fatal)
		}
	}
}
