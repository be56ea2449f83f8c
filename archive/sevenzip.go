package archive

import (
	"os"

	"github.com/bodgit/sevenzip"
)

// readSevenZipMembers opens a .7z file and returns its members. There
// is no corpus example grounding this format (see DESIGN.md); the
// decoder is github.com/bodgit/sevenzip, a pure-Go reader with the
// same random-access shape as archive/zip.
func readSevenZipMembers(path string) ([]Member, func() error, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, nil, &ErrExtractionFailed{Cause: err}
	}

	members := make([]Member, len(r.File))
	for i, f := range r.File {
		f := f
		members[i] = Member{
			Name:      f.Name,
			IsDir:     f.FileInfo().IsDir(),
			IsSymlink: f.Mode()&os.ModeSymlink != 0,
			ExecBit:   f.Mode()&0o111 != 0,
			Size:      int64(f.UncompressedSize),
			Open: func() (ReadCloser, error) {
				return f.Open()
			},
		}
	}
	return members, r.Close, nil
}
