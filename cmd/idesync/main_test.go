package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunNoArgsPrintsUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"idesync"}, &stdout, &stderr)
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "Usage:") {
		t.Errorf("usage not printed: %s", stdout.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"idesync", "bogus"}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "Unknown command") {
		t.Errorf("stderr = %s", stderr.String())
	}
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"idesync", "version"}, &stdout, &stderr)
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "idesync") {
		t.Errorf("stdout = %s", stdout.String())
	}
}

func TestListenDisabledByConfig(t *testing.T) {
	path := writeTempConfig(t, "enabled = false\n")

	var stdout, stderr bytes.Buffer
	code := runListen([]string{"--config", path}, &stdout, &stderr)
	if code != 0 {
		t.Errorf("exit code = %d, want 0; stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "disabled") {
		t.Errorf("stdout = %s", stdout.String())
	}
}

func TestConnectDisabledByConfig(t *testing.T) {
	path := writeTempConfig(t, "enabled = false\n")

	var stdout, stderr bytes.Buffer
	code := runConnect([]string{"--config", path}, &stdout, &stderr)
	if code != 0 {
		t.Errorf("exit code = %d, want 0; stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "disabled") {
		t.Errorf("stdout = %s", stdout.String())
	}
}

func TestListenBadConfigPath(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runListen([]string{"--config", "/nonexistent/config.toml"}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "Error") {
		t.Errorf("stderr = %s", stderr.String())
	}
}
