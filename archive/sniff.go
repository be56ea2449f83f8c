package archive

import (
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
)

// SniffKind inspects a file's leading bytes and returns the Kind it
// most likely is, used only as a sanity check when the effective
// extension was empty or ambiguous (spec's magic-bytes fallback). It
// never overrides a recognized, non-empty extension.
func SniffKind(header []byte) Kind {
	kind, err := filetype.Match(header)
	if err != nil {
		return KindRaw
	}
	switch kind {
	case matchers.TypeGz:
		return KindGzip
	case matchers.TypeZip, matchers.TypeJar:
		return KindZip
	case matchers.TypeTar:
		return KindTar
	case matchers.TypeBz2:
		return KindBzip2
	case matchers.TypeXz:
		return KindXz
	case matchers.Type7z:
		return KindSevenZip
	default:
		return KindRaw
	}
}
