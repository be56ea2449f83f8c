package archive

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"

	"github.com/ulikunitz/xz"
)

// decompressStream fully decompresses a single-stream compressed
// executable (gz/bz2/bz/xz — no container, just one compressed file)
// and returns the decompressed bytes.
func decompressStream(r io.Reader, kind Kind) ([]byte, error) {
	var dr io.Reader
	switch kind {
	case KindGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, &ErrExtractionFailed{Cause: err}
		}
		defer gz.Close()
		dr = gz
	case KindBzip2:
		dr = bzip2.NewReader(r)
	case KindXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, &ErrExtractionFailed{Cause: err}
		}
		dr = xr
	default:
		dr = r
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, dr); err != nil {
		return nil, &ErrExtractionFailed{Cause: err}
	}
	return buf.Bytes(), nil
}
