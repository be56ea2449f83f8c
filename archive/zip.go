package archive

import (
	"archive/zip"
	"os"
)

// readZipMembers opens a zip (or jar, which is just a zip) from path
// and returns its members, each able to lazily open its own reader.
func readZipMembers(path string) ([]Member, func() error, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, &ErrExtractionFailed{Cause: err}
	}

	members := make([]Member, len(zr.File))
	for i, f := range zr.File {
		f := f
		members[i] = Member{
			Name:      f.Name,
			IsDir:     f.FileInfo().IsDir(),
			IsSymlink: f.Mode()&os.ModeSymlink != 0,
			ExecBit:   f.Mode()&0o111 != 0,
			Size:      int64(f.UncompressedSize64),
			Open: func() (ReadCloser, error) {
				return f.Open()
			},
		}
	}
	return members, zr.Close, nil
}
