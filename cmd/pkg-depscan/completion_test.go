package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestInstallCompletion_UnknownShellDetection(t *testing.T) {
	// Ensure environment would not auto-detect a supported shell
	t.Setenv("SHELL", "/bin/unknown-shell")

	root := &cobra.Command{Use: "pkg-depscan"}
	root.AddCommand(createInstallCompletionCommand())
	root.SetArgs([]string{"install-completion"})

	err := root.Execute()
	if err == nil {
		t.Fatalf("expected error for unsupported shell detection, got nil")
	}
	if !strings.Contains(err.Error(), "unsupported shell") && !strings.Contains(err.Error(), "could not detect shell") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInstallCompletion_BashWritesToHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("USERPROFILE", tmp)

	root := &cobra.Command{Use: "pkg-depscan"}
	root.AddCommand(createInstallCompletionCommand())
	root.SetArgs([]string{"install-completion", "--shell", "bash", "--force"})
	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	target := filepath.Join(tmp, ".bash_completion.d", "pkg-depscan.bash")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected completion script at %s: %v", target, err)
	}
}

func TestInstallCompletion_ExistingFileWithoutForce(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("USERPROFILE", tmp)

	dir := filepath.Join(tmp, ".zsh/completion")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "_pkg-depscan"), []byte("old"), 0600); err != nil {
		t.Fatal(err)
	}

	root := &cobra.Command{Use: "pkg-depscan"}
	root.AddCommand(createInstallCompletionCommand())
	root.SetArgs([]string{"install-completion", "--shell", "zsh"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already-exists error, got %v", err)
	}
}
