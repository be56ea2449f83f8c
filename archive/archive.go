package archive

import (
	"io"
	"os"
	"path/filepath"
)

// SingleResult is the outcome of Extract in normal (non-extract-all)
// mode: the bytes to install, the basename they should be installed
// under, and whether they carry an executable bit worth propagating.
type SingleResult struct {
	Data       []byte
	MemberName string
	ExecBit    bool
}

// Extract runs the archive dispatcher in normal mode: given the
// downloaded file at path, its effective extension ext, and the
// desired executable basename want, it returns the single selected
// file's bytes.
//
// pyz is a special case: a .pyz archive is also a valid standalone
// executable. In normal mode (this function), it is treated as a bare
// executable and its bytes are passed through unchanged rather than
// unzipped.
func Extract(path, ext, want string, windows bool) (*SingleResult, error) {
	kind := decideWithSniff(path, ext)

	if ext == "pyz" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &ErrExtractionFailed{Cause: err}
		}
		return &SingleResult{Data: data, MemberName: want, ExecBit: true}, nil
	}

	switch kind {
	case KindTar:
		f, err := os.Open(path)
		if err != nil {
			return nil, &ErrExtractionFailed{Cause: err}
		}
		defer f.Close()
		entries, err := readTarEntries(f, ext)
		if err != nil {
			return nil, err
		}
		members := tarEntriesToMembers(entries)
		return selectAndRead(members, want, windows)

	case KindZip:
		members, closeFn, err := readZipMembers(path)
		if err != nil {
			return nil, err
		}
		defer closeFn()
		return selectAndRead(members, want, windows)

	case KindSevenZip:
		members, closeFn, err := readSevenZipMembers(path)
		if err != nil {
			return nil, err
		}
		defer closeFn()
		return selectAndRead(members, want, windows)

	case KindGzip, KindBzip2, KindXz:
		f, err := os.Open(path)
		if err != nil {
			return nil, &ErrExtractionFailed{Cause: err}
		}
		defer f.Close()
		data, err := decompressStream(f, kind)
		if err != nil {
			return nil, err
		}
		return &SingleResult{Data: data, MemberName: want, ExecBit: true}, nil

	default: // KindRaw: AppImage, exe, bat, bare
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &ErrExtractionFailed{Cause: err}
		}
		return &SingleResult{Data: data, MemberName: want, ExecBit: true}, nil
	}
}

func selectAndRead(members []Member, want string, windows bool) (*SingleResult, error) {
	m, err := SelectOne(members, want, windows)
	if err != nil {
		return nil, err
	}
	rc, err := m.Open()
	if err != nil {
		return nil, &ErrExtractionFailed{Cause: err}
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &ErrExtractionFailed{Cause: err}
	}
	return &SingleResult{Data: data, MemberName: filepathBase(m.Name), ExecBit: m.ExecBit}, nil
}

func filepathBase(name string) string {
	return filepath.Base(filepath.FromSlash(name))
}

// ExtractAll runs the archive dispatcher in extract_all mode: every
// file member is written under destDir, flattening a single common
// top-level directory when every member shares one. Symlinks are
// skipped. Any member whose normalized path escapes destDir fails the
// whole operation with ErrUnsafePath.
func ExtractAll(path, ext string, destDir string) error {
	kind := decideWithSniff(path, ext)

	var members []Member
	var closeFn func() error
	var err error

	switch kind {
	case KindTar:
		f, oerr := os.Open(path)
		if oerr != nil {
			return &ErrExtractionFailed{Cause: oerr}
		}
		defer f.Close()
		entries, terr := readTarEntries(f, ext)
		if terr != nil {
			return terr
		}
		members = tarEntriesToMembers(entries)
	case KindZip:
		members, closeFn, err = readZipMembers(path)
		if err != nil {
			return err
		}
		defer closeFn()
	case KindSevenZip:
		members, closeFn, err = readSevenZipMembers(path)
		if err != nil {
			return err
		}
		defer closeFn()
	default:
		// A bare/compressed executable in extract-all mode is just
		// that one file, installed under destDir verbatim.
		data, err := readRawOrDecompressed(path, kind)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(destDir, filepath.Base(path)), data, 0o644)
	}

	prefix := CommonPrefix(members)

	for _, m := range members {
		if m.IsSymlink {
			continue
		}
		rel, nerr := NormalizeExtractPath(m.Name, prefix)
		if nerr != nil {
			return nerr
		}
		if rel == "." || rel == "" {
			continue
		}
		dest := filepath.Join(destDir, filepath.FromSlash(rel))
		if m.IsDir {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return &ErrExtractionFailed{Cause: err}
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return &ErrExtractionFailed{Cause: err}
		}
		rc, oerr := m.Open()
		if oerr != nil {
			return &ErrExtractionFailed{Cause: oerr}
		}
		mode := os.FileMode(0o644)
		if m.ExecBit {
			mode = 0o755
		}
		out, cerr := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
		if cerr != nil {
			rc.Close()
			return &ErrExtractionFailed{Cause: cerr}
		}
		_, werr := io.Copy(out, rc)
		rc.Close()
		out.Close()
		if werr != nil {
			return &ErrExtractionFailed{Cause: werr}
		}
	}
	return nil
}

func readRawOrDecompressed(path string, kind Kind) ([]byte, error) {
	switch kind {
	case KindGzip, KindBzip2, KindXz:
		f, err := os.Open(path)
		if err != nil {
			return nil, &ErrExtractionFailed{Cause: err}
		}
		defer f.Close()
		return decompressStream(f, kind)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &ErrExtractionFailed{Cause: err}
		}
		return data, nil
	}
}
