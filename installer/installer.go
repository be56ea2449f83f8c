// Package installer materializes extracted bytes into a target
// directory: the directory is created only after extraction succeeds,
// the final file is written via write-sibling-then-rename so a failed
// install never leaves a partial target, and non-Windows installs get
// mode 0755.
package installer

import (
	"fmt"
	"os"
	"path/filepath"
)

// Request describes one materialization.
type Request struct {
	// Dir is the target directory. Created only if it doesn't already
	// exist, and only by Install itself (never by an earlier stage).
	Dir string

	// Name is the final filename to write inside Dir.
	Name string

	// Data is the file content.
	Data []byte

	// Windows controls whether the installed file gets 0755 (false)
	// or is left at the platform default (true — chmod is a non-op on
	// Windows anyway).
	Windows bool
}

// ErrIoFailed wraps a local filesystem failure.
type ErrIoFailed struct {
	Cause error
}

func (e *ErrIoFailed) Error() string { return fmt.Sprintf("io failed: %v", e.Cause) }
func (e *ErrIoFailed) Unwrap() error { return e.Cause }

// Install writes req.Data to req.Dir/req.Name and returns the final
// path. The directory is created here, after the caller has already
// finished extraction — never earlier — so a failed resolve/download/
// extract leaves no directory behind.
func Install(req Request) (string, error) {
	if err := os.MkdirAll(req.Dir, 0o755); err != nil {
		return "", &ErrIoFailed{Cause: err}
	}

	final := filepath.Join(req.Dir, req.Name)

	tmp, err := os.CreateTemp(req.Dir, ".fetchbin-install-*")
	if err != nil {
		return "", &ErrIoFailed{Cause: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(req.Data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", &ErrIoFailed{Cause: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", &ErrIoFailed{Cause: err}
	}

	if !req.Windows {
		if err := os.Chmod(tmpPath, 0o755); err != nil {
			os.Remove(tmpPath)
			return "", &ErrIoFailed{Cause: err}
		}
	}

	// Writing beside the final path and renaming makes the effect
	// atomic on platforms that support atomic rename, and matches the
	// "ubi-old.exe" leftover tolerance on Windows: a rename onto an
	// open/running file is left to the OS to refuse or allow, and this
	// package does not attempt to delete a previous file first.
	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return "", &ErrIoFailed{Cause: err}
	}

	return final, nil
}

// FinalName computes the installed filename per spec: RenameTo, if
// set, is used verbatim with no extension auto-append; otherwise the
// installed file is named after the requested executable (want) —
// plus .exe on Windows if it has no extension — whether it came from
// a bare/compressed download or was selected out of an archive. Only
// when want is empty (no Exe and no project name to fall back to)
// does the archive member's own basename get used.
func FinalName(renameTo, want, memberBasename string, windows bool) string {
	if renameTo != "" {
		return renameTo
	}
	name := want
	if name == "" {
		name = memberBasename
	}
	if windows && filepath.Ext(name) == "" {
		name += ".exe"
	}
	return name
}
