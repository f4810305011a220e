package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/pkg-depscan/internal/config/manifest"
	"github.com/open-edge-platform/pkg-depscan/internal/utils/logger"
)

// createValidateCommand creates the validate subcommand
func createValidateCommand() *cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate [flags] MANIFEST_FILE",
		Short: "Validate a scan manifest file",
		Long: `Validate a scan manifest file against the schema without scanning.
The manifest file must be in YAML format following the scan manifest schema.
This allows checking for errors in your manifest before a full scan.`,
		Args:              cobra.ExactArgs(1),
		RunE:              executeValidate,
		ValidArgsFunction: manifestFileCompletion,
	}

	return validateCmd
}

// executeValidate handles the validate command logic
func executeValidate(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	manifestFile := args[0]

	log.Infof("validating manifest file: %s", manifestFile)

	m, err := manifest.Load(manifestFile)
	if err != nil {
		return fmt.Errorf("manifest validation failed: %v", err)
	}

	log.Infof("✓ Manifest validation successful")
	log.Infof("  Targets: %d", len(m.Targets))
	for _, t := range m.Targets {
		log.Infof("    - %s (root: %s, %d excludes)", t.Name, t.Root, len(t.Exclude))
	}
	if m.Report.Path != "" || m.Report.Format != "" {
		log.Infof("  Report: %s (%s)", m.Report.Path, m.Report.Format)
	}

	return nil
}
