package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// createInstallCompletionCommand creates the install-completion subcommand
func createInstallCompletionCommand() *cobra.Command {
	installCompletionCmd := &cobra.Command{
		Use:   "install-completion",
		Short: "Install shell completion script",
		Long: `Install shell completion script for Bash, Zsh or Fish.
Automatically detects your shell and installs the appropriate completion script.`,
		RunE: executeInstallCompletion,
	}

	installCompletionCmd.Flags().String("shell", "", "Specify shell type (bash, zsh, fish)")
	installCompletionCmd.Flags().Bool("force", false, "Force overwrite existing completion files")

	return installCompletionCmd
}

// executeInstallCompletion handles installation of shell completion scripts
func executeInstallCompletion(cmd *cobra.Command, args []string) error {
	shellType, err := cmd.Flags().GetString("shell")
	if err != nil {
		return err
	}
	userForce, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// If no shell specified, detect current shell
	if shellType == "" {
		shellEnv := os.Getenv("SHELL")
		switch {
		case strings.Contains(shellEnv, "bash"):
			shellType = "bash"
		case strings.Contains(shellEnv, "zsh"):
			shellType = "zsh"
		case strings.Contains(shellEnv, "fish"):
			shellType = "fish"
		default:
			return fmt.Errorf("could not detect shell. Please specify with --shell flag")
		}
	}

	// Generate completion script
	var buf bytes.Buffer
	switch shellType {
	case "bash":
		if err := cmd.Root().GenBashCompletion(&buf); err != nil {
			return fmt.Errorf("error generating Bash completion: %w", err)
		}
	case "zsh":
		if err := cmd.Root().GenZshCompletion(&buf); err != nil {
			return fmt.Errorf("error generating Zsh completion: %w", err)
		}
	case "fish":
		if err := cmd.Root().GenFishCompletion(&buf, true); err != nil {
			return fmt.Errorf("error generating Fish completion: %w", err)
		}
	default:
		return fmt.Errorf("unsupported shell type: %s", shellType)
	}

	// Determine where to save the completion script
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("could not determine home directory: %v", err)
	}

	var targetPath string
	switch shellType {
	case "bash":
		completionDir := filepath.Join(homeDir, ".bash_completion.d")
		if err := os.MkdirAll(completionDir, 0700); err != nil {
			return fmt.Errorf("could not create directory %s: %v", completionDir, err)
		}
		targetPath = filepath.Join(completionDir, "pkg-depscan.bash")
	case "zsh":
		completionDir := filepath.Join(homeDir, ".zsh/completion")
		if err := os.MkdirAll(completionDir, 0700); err != nil {
			return fmt.Errorf("could not create directory %s: %v", completionDir, err)
		}
		targetPath = filepath.Join(completionDir, "_pkg-depscan")
	case "fish":
		completionDir := filepath.Join(homeDir, ".config/fish/completions")
		if err := os.MkdirAll(completionDir, 0700); err != nil {
			return fmt.Errorf("could not create directory %s: %v", completionDir, err)
		}
		targetPath = filepath.Join(completionDir, "pkg-depscan.fish")
	}

	// Check if file exists
	if _, err := os.Stat(targetPath); err == nil && !userForce {
		return fmt.Errorf("completion file already exists at %s. Use --force to overwrite", targetPath)
	}

	// Write completion script to file
	if err := os.WriteFile(targetPath, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("could not write completion file: %v", err)
	}

	fmt.Printf("Shell completion installed for %s at %s\n", shellType, targetPath)
	return nil
}
