package security

import (
	"fmt"
	"os"
	"path/filepath"
)

// SymlinkPolicy says what a file-access helper does when the path it was
// handed turns out to be a symlink.
type SymlinkPolicy int

const (
	// RejectSymlinks fails the access. Config and manifest reads use this;
	// a link swapped in under a trusted path must not be followed.
	RejectSymlinks SymlinkPolicy = iota
	// ResolveSymlinks follows the link and operates on its target. Keyring
	// reads use this: distros routinely symlink key files under /etc.
	ResolveSymlinks
)

// SafeFileInfo describes a path after its symlink check. For a regular entry
// ResolvedPath equals OriginalPath; for a followed symlink it is the target.
type SafeFileInfo struct {
	OriginalPath string
	ResolvedPath string
	IsSymlink    bool
	FileInfo     os.FileInfo
}

// CheckSymlink applies policy to path and reports where the access should
// actually land.
func CheckSymlink(path string, policy SymlinkPolicy) (*SafeFileInfo, error) {
	if policy != RejectSymlinks && policy != ResolveSymlinks {
		return nil, fmt.Errorf("invalid symlink policy: %d", policy)
	}

	// Lstat, not Stat: the link itself is what we are deciding about.
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get file info for %s: %w", path, err)
	}

	result := &SafeFileInfo{
		OriginalPath: path,
		ResolvedPath: path,
		IsSymlink:    info.Mode()&os.ModeSymlink != 0,
		FileInfo:     info,
	}
	if !result.IsSymlink {
		return result, nil
	}
	if policy == RejectSymlinks {
		return nil, fmt.Errorf("symlinks are not allowed: %s", path)
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve symlink %s: %w", path, err)
	}
	targetInfo, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to access symlink target %s: %w", resolved, err)
	}
	result.ResolvedPath = resolved
	result.FileInfo = targetInfo
	return result, nil
}

// SafeReadFile reads path under the given symlink policy.
func SafeReadFile(path string, policy SymlinkPolicy) ([]byte, error) {
	safeInfo, err := CheckSymlink(path, policy)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(safeInfo.ResolvedPath)
}

// SafeWriteFile writes data to path after checking both the destination and
// its parent directory, so neither a pre-planted link file nor a link
// directory can redirect the write.
func SafeWriteFile(path string, data []byte, perm os.FileMode, policy SymlinkPolicy) error {
	if _, err := os.Lstat(path); err == nil {
		safeInfo, err := CheckSymlink(path, policy)
		if err != nil {
			return fmt.Errorf("existing file symlink check failed: %w", err)
		}
		path = safeInfo.ResolvedPath
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "/" {
		safeInfo, err := CheckSymlink(dir, policy)
		if err != nil {
			return fmt.Errorf("parent directory symlink check failed: %w", err)
		}
		if safeInfo.ResolvedPath != dir {
			path = filepath.Join(safeInfo.ResolvedPath, filepath.Base(path))
		}
	}

	return os.WriteFile(path, data, perm)
}

// SafeOpenFile opens path under the given symlink policy. When the call may
// create the file and it does not exist yet, only the parent directory can be
// a link, so that is what gets checked.
func SafeOpenFile(path string, flag int, perm os.FileMode, policy SymlinkPolicy) (*os.File, error) {
	if flag&os.O_CREATE != 0 {
		if _, err := os.Lstat(path); os.IsNotExist(err) {
			dir := filepath.Dir(path)
			if dir != "." && dir != "/" && dir != path {
				if _, err := os.Stat(dir); err == nil {
					safeInfo, err := CheckSymlink(dir, policy)
					if err != nil {
						return nil, fmt.Errorf("parent directory symlink check failed: %w", err)
					}
					if safeInfo.ResolvedPath != dir {
						path = filepath.Join(safeInfo.ResolvedPath, filepath.Base(path))
					}
				}
			}
			return os.OpenFile(path, flag, perm)
		}
	}

	safeInfo, err := CheckSymlink(path, policy)
	if err != nil {
		return nil, err
	}
	return os.OpenFile(safeInfo.ResolvedPath, flag, perm)
}
