// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool // binary -> whether LookPath succeeds
	runnableCmds  map[string]bool // "bin arg1 arg2" -> whether RunSilent succeeds
	runPipedFunc  func(name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunSilent(_ context.Context, name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (m *mockExecutor) RunPiped(_ context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if m.runPipedFunc != nil {
		return m.runPipedFunc(name, args, stdin, stdout, stderr)
	}
	return nil
}

func TestDetectRuntime(t *testing.T) {
	tests := []struct {
		name      string
		exec      *mockExecutor
		preferred string
		wantName  string
		wantErr   string
	}{
		{
			name: "docker available",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true},
				runnableCmds:  map[string]bool{"docker info": true},
			},
			wantName: "docker",
		},
		{
			name: "podman fallback when docker missing",
			exec: &mockExecutor{
				availableBins: map[string]bool{"podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "docker on PATH but info fails, podman works",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "preferred podman skips working docker",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"docker info": true, "podman info": true},
			},
			preferred: "podman",
			wantName:  "podman",
		},
		{
			name: "preferred docker unavailable",
			exec: &mockExecutor{
				availableBins: map[string]bool{"podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			preferred: "docker",
			wantErr:   "no container runtime available",
		},
		{
			name:    "neither available",
			exec:    &mockExecutor{},
			wantErr: "no container runtime available",
		},
		{
			name:      "unknown runtime",
			exec:      &mockExecutor{},
			preferred: "lxc",
			wantErr:   "unsupported container runtime",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detectRuntime(context.Background(), tt.exec, tt.preferred)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rt.Name() != tt.wantName {
				t.Errorf("got runtime %q, want %q", rt.Name(), tt.wantName)
			}
		})
	}
}

func TestImageExists(t *testing.T) {
	tests := []struct {
		name    string
		bin     string
		cmds    map[string]bool
		wantErr bool
	}{
		{"docker image exists", "docker", map[string]bool{"docker image inspect markitdown:latest": true}, false},
		{"docker image not found", "docker", nil, true},
		{"podman image exists", "podman", map[string]bool{"podman image exists markitdown:latest": true}, false},
		{"podman image not found", "podman", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := newRuntime(tt.bin, &mockExecutor{runnableCmds: tt.cmds})
			err := rt.ImageExists(context.Background(), "markitdown:latest")
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "markitdown:latest") {
					t.Fatalf("expected error naming the image, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRunPipesStdinToStdout(t *testing.T) {
	var gotArgs []string
	exec := &mockExecutor{runPipedFunc: func(name string, args []string, stdin io.Reader, stdout, _ io.Writer) error {
		gotArgs = append([]string{name}, args...)
		data, _ := io.ReadAll(stdin)
		_, _ = stdout.Write([]byte("converted: " + string(data)))
		return nil
	}}

	var out bytes.Buffer
	err := newRuntime("podman", exec).Run(context.Background(), "markitdown:latest", strings.NewReader("pdf bytes"), &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "converted: pdf bytes" {
		t.Errorf("output = %q", out.String())
	}
	want := "podman run --rm -i --network none markitdown:latest"
	if strings.Join(gotArgs, " ") != want {
		t.Errorf("command = %q, want %q", strings.Join(gotArgs, " "), want)
	}
}

func TestRunFailureIncludesStderr(t *testing.T) {
	exec := &mockExecutor{runPipedFunc: func(_ string, _ []string, _ io.Reader, _, stderr io.Writer) error {
		_, _ = stderr.Write([]byte("UnsupportedFormatException\n"))
		return errors.New("exit status 1")
	}}

	err := newRuntime("docker", exec).Run(context.Background(), "markitdown:latest", strings.NewReader(""), io.Discard)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "UnsupportedFormatException") || !strings.Contains(err.Error(), "exit status 1") {
		t.Errorf("error = %v", err)
	}
}

func TestRuntimeName(t *testing.T) {
	for _, bin := range []string{"docker", "podman"} {
		if got := newRuntime(bin, &mockExecutor{}).Name(); got != bin {
			t.Errorf("Name() = %q, want %q", got, bin)
		}
	}
}
