// Package report turns the engine's per-target buckets into a serializable
// dependency report for downstream packaging tooling.
package report

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"gopkg.in/yaml.v3"

	"github.com/open-edge-platform/pkg-depscan/internal/analyze"
	"github.com/open-edge-platform/pkg-depscan/internal/config/version"
	"github.com/open-edge-platform/pkg-depscan/internal/utils/security"
)

// Capability is one dependency or provider fact in wire form.
type Capability struct {
	Name string `json:"name" yaml:"name"`
	Kind string `json:"kind" yaml:"kind"`
}

// FileEntry describes one scanned file of a target.
type FileEntry struct {
	Path     string `json:"path" yaml:"path"`
	BitWidth int    `json:"bitWidth,omitempty" yaml:"bitWidth,omitempty"`
	BuildID  string `json:"buildId,omitempty" yaml:"buildId,omitempty"`
}

// Target aggregates everything discovered for one output bucket.
type Target struct {
	Name     string       `json:"name" yaml:"name"`
	Files    []FileEntry  `json:"files" yaml:"files"`
	Requires []Capability `json:"requires" yaml:"requires"`
	Provides []Capability `json:"provides" yaml:"provides"`
}

// Report is the top-level scan result.
type Report struct {
	RunID     string    `json:"runId" yaml:"runId"`
	Tool      string    `json:"tool" yaml:"tool"`
	Version   string    `json:"version" yaml:"version"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	Targets   []Target  `json:"targets" yaml:"targets"`
}

// Build assembles a report from the engine's buckets and the analyzed files.
// Targets and file lists come out sorted so reports diff cleanly.
func Build(e *analyze.Engine, files []*analyze.File) *Report {
	byTarget := make(map[string][]FileEntry)
	for _, f := range files {
		if f.Kind != analyze.KindRegular {
			continue
		}
		byTarget[f.Target] = append(byTarget[f.Target], FileEntry{
			Path:     f.Path,
			BitWidth: f.BitWidth,
			BuildID:  f.BuildID,
		})
	}

	names := e.Targets()
	sort.Strings(names)

	r := &Report{
		RunID:     uuid.NewString(),
		Tool:      version.Toolname,
		Version:   version.Version,
		CreatedAt: time.Now().UTC(),
	}
	for _, name := range names {
		b := e.Bucket(name)

		entries := byTarget[name]
		sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

		t := Target{Name: name, Files: entries}
		for _, d := range b.Dependencies() {
			t.Requires = append(t.Requires, Capability{Name: d.Name, Kind: d.Kind.String()})
		}
		for _, p := range b.Providers() {
			t.Provides = append(t.Provides, Capability{Name: p.Name, Kind: p.Kind.String()})
		}
		r.Targets = append(r.Targets, t)
	}
	return r
}

// Write serializes the report to path. Format is "json" or "yaml"; the path
// extension picks the compression: .gz, .zst or .xz, anything else is plain.
// Symlinked destinations are refused.
func (r *Report) Write(path, format string) error {
	data, err := r.Marshal(format)
	if err != nil {
		return err
	}

	out, err := security.SafeOpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644, security.RejectSymlinks)
	if err != nil {
		return fmt.Errorf("creating report %s: %w", path, err)
	}
	defer out.Close()

	var w io.WriteCloser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		w = gzip.NewWriter(out)
	case ".zst":
		zw, zerr := zstd.NewWriter(out)
		if zerr != nil {
			return fmt.Errorf("creating zstd writer: %w", zerr)
		}
		w = zw
	case ".xz":
		xw, xerr := xz.NewWriter(out)
		if xerr != nil {
			return fmt.Errorf("creating xz writer: %w", xerr)
		}
		w = xw
	default:
		if _, err := out.Write(data); err != nil {
			return fmt.Errorf("writing report %s: %w", path, err)
		}
		return nil
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing report %s: %w", path, err)
	}
	return nil
}

// Marshal renders the report in the requested format.
func (r *Report) Marshal(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling report to JSON: %w", err)
		}
		return append(data, '\n'), nil
	case "yaml", "yml":
		data, err := yaml.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("marshaling report to YAML: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s (supported: json, yaml)", format)
	}
}
