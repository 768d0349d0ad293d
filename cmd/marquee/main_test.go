package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"marquee/internal/version"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init returned error: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Errorf("output %q does not mention target path", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config was not written: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists without --overwrite")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite returned error: %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version returned error: %v", err)
	}
	if strings.TrimSpace(out) != version.Version {
		t.Errorf("version output = %q, want %q", strings.TrimSpace(out), version.Version)
	}
}

func TestWrapDialErrorMentionsSocket(t *testing.T) {
	err := wrapDialError(os.ErrNotExist, "/tmp/marqueed.sock")
	if !strings.Contains(err.Error(), "/tmp/marqueed.sock") {
		t.Errorf("error %q does not mention socket path", err)
	}
	if !strings.Contains(err.Error(), "daemon run") {
		t.Errorf("error %q does not hint at starting the daemon", err)
	}
}
