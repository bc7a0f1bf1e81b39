package container

import (
	"context"
	"errors"
	"testing"
)

func TestRunBuildCommandWrapsSentinelOnFailure(t *testing.T) {
	dir := t.TempDir()
	err := runBuildCommand(context.Background(), dir, "exit 1")
	if err == nil {
		t.Fatal("expected error for non-zero build command")
	}
	if !errors.Is(err, ErrBuildCommandFailed) {
		t.Errorf("err = %v, want wrapping ErrBuildCommandFailed", err)
	}
}

func TestRunBuildCommandSucceeds(t *testing.T) {
	dir := t.TempDir()
	if err := runBuildCommand(context.Background(), dir, "true"); err != nil {
		t.Fatalf("runBuildCommand: %v", err)
	}
}
