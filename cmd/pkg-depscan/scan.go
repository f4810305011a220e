package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/open-edge-platform/pkg-depscan/internal/analyze"
	"github.com/open-edge-platform/pkg-depscan/internal/config"
	"github.com/open-edge-platform/pkg-depscan/internal/config/manifest"
	"github.com/open-edge-platform/pkg-depscan/internal/elfdeps"
	"github.com/open-edge-platform/pkg-depscan/internal/report"
	"github.com/open-edge-platform/pkg-depscan/internal/rpmdeps"
	"github.com/open-edge-platform/pkg-depscan/internal/utils/logger"
)

// Scan command flags
var (
	workers     int    = -1 // -1 means use config file value
	outputPath  string = "" // Empty means use manifest/config value
	format      string = "" // Empty means use manifest/config value
	keyringPath string = ""
	keepGoing   bool   = false
)

// createScanCommand creates the scan subcommand
func createScanCommand() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan [flags] MANIFEST_FILE",
		Short: "Scan staged files and emit their dependency report",
		Long: `Scan every file of every target named in the manifest and write the
accumulated dependency/provider facts as a report. The manifest must be in
YAML format following the scan manifest schema.`,
		Args:              cobra.ExactArgs(1),
		RunE:              executeScan,
		ValidArgsFunction: manifestFileCompletion,
	}

	scanCmd.Flags().IntVarP(&workers, "workers", "w", -1,
		"Number of concurrent scan workers")
	scanCmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"Report output path (.gz/.zst/.xz extension enables compression)")
	scanCmd.Flags().StringVarP(&format, "format", "f", "",
		"Report format (json, yaml)")
	scanCmd.Flags().StringVar(&keyringPath, "keyring", "",
		"Armored GPG keyring; staged RPMs must verify against it")
	scanCmd.Flags().BoolVar(&keepGoing, "keep-going", false,
		"Log per-file scan failures and continue instead of aborting the run")

	return scanCmd
}

// executeScan handles the scan command execution logic
func executeScan(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("workers") {
		currentConfig := *config.Global()
		currentConfig.Workers = workers
		if err := currentConfig.Validate(); err != nil {
			return fmt.Errorf("invalid --workers value: %v", err)
		}
		config.SetGlobal(&currentConfig)
	}

	log := logger.Logger()

	m, err := manifest.Load(args[0])
	if err != nil {
		return fmt.Errorf("loading manifest: %v", err)
	}

	// Command line beats manifest beats global config.
	reportPath := firstNonEmpty(outputPath, m.Report.Path, config.Global().Report.Path, "pkg-depscan-report.json")
	reportFormat := firstNonEmpty(format, m.Report.Format, config.Global().Report.Format, "json")

	rpmScanner := &rpmdeps.Scanner{}
	if keyringPath != "" {
		keyring, kerr := rpmdeps.LoadKeyring(keyringPath)
		if kerr != nil {
			return fmt.Errorf("loading keyring: %v", kerr)
		}
		rpmScanner.Keyring = keyring
	}

	engine := analyze.NewEngine(
		analyze.Chain{Name: "elf", Stages: []analyze.Stage{
			elfdeps.AdmitStage(),
			elfdeps.NewScanner().Stage(),
		}},
		analyze.Chain{Name: "rpm", Stages: []analyze.Stage{
			rpmdeps.AdmitStage(),
			rpmScanner.Stage(),
		}},
	)

	var files []*analyze.File
	for _, t := range m.Targets {
		walked, werr := analyze.Walk(t.Root, t.Name, t.Exclude)
		if werr != nil {
			return fmt.Errorf("walking target %s: %v", t.Name, werr)
		}
		// Touch the bucket so empty targets still appear in the report.
		engine.Bucket(t.Name)
		files = append(files, walked...)
	}
	log.Infof("scanning %d files across %d targets", len(files), len(m.Targets))

	if err := runEngine(engine, files, config.Workers()); err != nil {
		return err
	}

	r := report.Build(engine, files)
	if err := r.Write(reportPath, reportFormat); err != nil {
		return fmt.Errorf("writing report: %v", err)
	}
	log.Infof("report written to %s", reportPath)
	return nil
}

// runEngine analyzes all files on a fixed-size worker pool. With
// --keep-going, per-file failures are logged and skipped; otherwise the
// first failure is reported after the pool drains.
func runEngine(engine *analyze.Engine, files []*analyze.File, workerCount int) error {
	log := logger.Logger()

	// A pool of zero workers would drain nothing and report success.
	if workerCount < 1 {
		workerCount = 1
	}

	total := len(files)
	errs := make([]error, total)
	jobs := make(chan int, total)
	var wg sync.WaitGroup

	bar := progressbar.NewOptions(total,
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				f := files[idx]
				bar.Describe("scanning " + f.Path)
				errs[idx] = engine.Analyze(f)
				if err := bar.Add(1); err != nil {
					log.Errorf("failed to add to progress bar: %v", err)
				}
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	if err := bar.Finish(); err != nil {
		log.Errorf("failed to finish progress bar: %v", err)
	}

	var firstErr error
	failed := 0
	for _, err := range errs {
		if err == nil {
			continue
		}
		failed++
		if keepGoing {
			log.Warnf("skipping: %v", err)
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return fmt.Errorf("scan failed (%d files): %v", failed, firstErr)
	}
	if failed > 0 {
		log.Warnf("%d files skipped due to scan failures", failed)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// manifestFileCompletion completes positional args to yaml files.
func manifestFileCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
}
