package app

import (
	"context"
	"errors"
	"testing"

	"github.com/Temutjin2k/driver-presence/config"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
)

func TestNewApplication_InvalidMode(t *testing.T) {
	_, err := NewApplication(context.Background(), config.Config{Mode: "driver"}, logger.Nop())
	if !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestRun_NotInitialized(t *testing.T) {
	a := &App{}
	if err := a.Run(context.Background()); !errors.Is(err, ErrServiceNotInitialized) {
		t.Fatalf("expected ErrServiceNotInitialized, got %v", err)
	}
}
