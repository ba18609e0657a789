package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains the directories the application reads and writes.
// All relative paths resolve against the executable directory, never the
// current working directory, so the binary behaves the same no matter
// where it is launched from.
type Paths struct {
	ExecutableDir string
	DataDir       string
	ExportsDir    string
	LogsDir       string
}

// GetPaths resolves the application directory layout:
//
//	<exe dir>/
//	  ├── data/      (source CSV tables, model artifacts)
//	  ├── exports/   (generated CSV / XLSX downloads)
//	  └── logs/
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	exeDir := filepath.Dir(exe)

	return &Paths{
		ExecutableDir: exeDir,
		DataDir:       filepath.Join(exeDir, "data"),
		ExportsDir:    filepath.Join(exeDir, "exports"),
		LogsDir:       filepath.Join(exeDir, "logs"),
	}, nil
}

// EnsureDirectories creates the writable directories if they do not exist.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ExportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ResolveData resolves a possibly-relative path against the data directory.
func (p *Paths) ResolveData(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.DataDir, path)
}

// ResolveExport resolves a possibly-relative path against the exports directory.
func (p *Paths) ResolveExport(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.ExportsDir, path)
}
