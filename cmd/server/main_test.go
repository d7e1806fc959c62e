package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	t.Setenv("LEDGER_DRIVER", "none")
	dir := t.TempDir()
	course := "lab1:\n  title: Intro\n  questions:\n    - id: 1\n      title: t\n      text: q\n      answers:\n        - pattern: \"^a$\"\n      correct_message: ok\n      hint: h\n"
	if err := os.WriteFile(filepath.Join(dir, "intro.yaml"), []byte(course), 0o644); err != nil {
		t.Fatalf("write course: %v", err)
	}

	out, err := runCommand(t, "check", "--questions-dir", dir, "--marker-dir", t.TempDir())
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(out, "intro/lab1") || !strings.Contains(out, "1 courses, 1 labs OK") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestCheckCommandRejectsBadPattern(t *testing.T) {
	t.Setenv("LEDGER_DRIVER", "none")
	dir := t.TempDir()
	course := "lab1:\n  title: Intro\n  questions:\n    - id: 1\n      title: t\n      text: q\n      answers:\n        - pattern: \"([\"\n      correct_message: ok\n      hint: h\n"
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(course), 0o644); err != nil {
		t.Fatalf("write course: %v", err)
	}

	if _, err := runCommand(t, "check", "--questions-dir", dir, "--marker-dir", t.TempDir()); err == nil {
		t.Fatal("expected load error")
	}
}

func TestStatusCommand(t *testing.T) {
	t.Setenv("LEDGER_DRIVER", "none")
	markerDir := t.TempDir()

	out, err := runCommand(t, "status", "--marker-dir", markerDir, "k8s", "lab1")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "k8s/lab1: incomplete") {
		t.Errorf("unexpected output %q", out)
	}

	if err := os.WriteFile(filepath.Join(markerDir, "quiz_complete_k8s_lab1.txt"), []byte("done\n"), 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	out, err = runCommand(t, "status", "--marker-dir", markerDir, "k8s", "lab1")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "k8s/lab1: complete") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestStatusCommandRejectsUnsafeIDs(t *testing.T) {
	if _, err := runCommand(t, "status", "../etc", "lab1"); err == nil {
		t.Fatal("expected invalid id error")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "quiz-server") {
		t.Errorf("unexpected output %q", out)
	}
}
