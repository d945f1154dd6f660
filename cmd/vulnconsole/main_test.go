package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestEmitCommandError_StructuredForScopedCommands(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "info")
	setCommandExecutionContext(commandExecutionContext{
		CommandPath:       "vulnconsole serve",
		UsesStructuredLog: true,
	})
	t.Cleanup(resetCommandExecutionContext)

	var out bytes.Buffer
	emitCommandError(errors.New("boom"), "command failed", 1, &out)

	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected structured log output")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if got := payload["app"]; got != "vulnconsole" {
		t.Fatalf("app = %v, want %q", got, "vulnconsole")
	}
	if got := payload["command"]; got != "vulnconsole serve" {
		t.Fatalf("command = %v, want %q", got, "vulnconsole serve")
	}
	if got := payload["exit_code"]; got != float64(1) {
		t.Fatalf("exit_code = %v, want %v", got, 1)
	}
	if got := payload["error"]; got != "boom" {
		t.Fatalf("error = %v, want %q", got, "boom")
	}
}

func TestEmitCommandError_FallsBackToJSONWhenLoggingEnvInvalid(t *testing.T) {
	t.Setenv("LOG_FORMAT", "invalid")
	t.Setenv("LOG_LEVEL", "info")
	setCommandExecutionContext(commandExecutionContext{
		CommandPath:       "vulnconsole migrate",
		UsesStructuredLog: true,
	})
	t.Cleanup(resetCommandExecutionContext)

	var out bytes.Buffer
	emitCommandError(errors.New("boom"), "command failed", 1, &out)

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out.String())), &payload); err != nil {
		t.Fatalf("expected JSON fallback log, got parse error: %v", err)
	}
}

func TestEmitCommandError_PlainOutputForInteractiveCommands(t *testing.T) {
	setCommandExecutionContext(commandExecutionContext{CommandPath: "vulnconsole vulns"})
	t.Cleanup(resetCommandExecutionContext)

	var out bytes.Buffer
	emitCommandError(errors.New("plain boom"), "command failed", 1, &out)
	if got := out.String(); got != "plain boom\n" {
		t.Fatalf("output = %q, want %q", got, "plain boom\n")
	}
}

func TestRunMain_ExitCodes(t *testing.T) {
	setCommandExecutionContext(commandExecutionContext{CommandPath: "vulnconsole backups import"})
	t.Cleanup(resetCommandExecutionContext)

	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantOutput string
	}{
		{name: "plain", err: errors.New("boom"), wantCode: 1, wantOutput: "boom\n"},
		{name: "canceled", err: fmt.Errorf("run: %w", context.Canceled), wantCode: exitCanceled, wantOutput: "canceled\n"},
		{name: "silent", err: silentExit(3), wantCode: 3},
		{name: "exit error", err: &exitError{code: 2, err: errors.New("bad flag")}, wantCode: 2, wantOutput: "bad flag\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			execute := func(context.Context) error { return tc.err }
			if got := runMain(context.Background(), execute, &out); got != tc.wantCode {
				t.Fatalf("runMain() = %d, want %d", got, tc.wantCode)
			}
			if got := out.String(); got != tc.wantOutput {
				t.Fatalf("output = %q, want %q", got, tc.wantOutput)
			}
		})
	}
}

func TestRunMain_Success(t *testing.T) {
	var out bytes.Buffer
	if got := runMain(context.Background(), func(context.Context) error { return nil }, &out); got != 0 {
		t.Fatalf("runMain(ok) = %d, want 0", got)
	}
	if out.Len() != 0 {
		t.Fatalf("output = %q, want none", out.String())
	}
}
