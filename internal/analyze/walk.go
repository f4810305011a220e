package analyze

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/open-edge-platform/pkg-depscan/internal/utils/file"
)

// Walk builds a File record for every entry under root, attributing all of
// them to target. Install paths are the walked paths made relative to root
// and rooted at "/", so a staged tree scans the same way the installed tree
// would. Entries matching any of the exclude globs (matched against the
// install path) are skipped; excluded directories are not descended into.
func Walk(root, target string, exclude []string) ([]*File, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", root, err)
	}

	var files []*File
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == absRoot {
			return nil
		}

		// Refuse entries that escape the staging root (dangling or hostile
		// symlinked directories can smuggle paths outside it).
		if ok, serr := file.IsSubPath(absRoot, path); serr != nil || !ok {
			if serr != nil {
				return serr
			}
			return fmt.Errorf("path %s escapes staging root %s", path, absRoot)
		}

		rel, rerr := filepath.Rel(absRoot, path)
		if rerr != nil {
			return rerr
		}
		installPath := "/" + filepath.ToSlash(rel)

		for _, g := range exclude {
			if ok, _ := filepath.Match(g, installPath); ok {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		files = append(files, &File{
			Path:       installPath,
			SourcePath: path,
			Kind:       classify(d),
			Target:     target,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

func classify(d fs.DirEntry) FileKind {
	switch {
	case d.Type().IsRegular():
		return KindRegular
	case d.IsDir():
		return KindDirectory
	case d.Type()&os.ModeSymlink != 0:
		return KindSymlink
	default:
		return KindOther
	}
}
