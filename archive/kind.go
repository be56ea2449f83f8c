// Package archive dispatches a downloaded asset to the right container
// decoder based on its effective extension (with a magic-bytes sanity
// check when the extension is empty or ambiguous), and implements the
// inner-member selection and bulk-extraction rules.
package archive

import "os"

// Kind is the sum type of container formats this package decodes.
// Modeled as an enum switched over rather than as an interface with
// per-format virtual dispatch, since the set is closed and small.
type Kind int

const (
	KindRaw Kind = iota
	KindTar
	KindZip
	KindSevenZip
	KindGzip
	KindBzip2
	KindXz
)

func (k Kind) String() string {
	switch k {
	case KindTar:
		return "tar"
	case KindZip:
		return "zip"
	case KindSevenZip:
		return "7z"
	case KindGzip:
		return "gzip"
	case KindBzip2:
		return "bzip2"
	case KindXz:
		return "xz"
	default:
		return "raw"
	}
}

// Decide maps an effective extension (as produced by the picker) to a
// Kind, per the dispatch table: tar family decompresses then iterates
// tar members; zip/jar iterate zip entries (pyz is handled specially
// by the caller, since in non-extract-all mode it is also a valid
// standalone executable); 7z iterates 7z entries; gz/bz2/bz/xz are
// single-stream compressors whose decompressed bytes are the
// executable; AppImage/exe/bat/empty are bytes-as-is.
func Decide(ext string) Kind {
	switch ext {
	case "tar", "tar.gz", "tgz", "tar.bz", "tar.bz2", "tbz", "tar.xz", "txz":
		return KindTar
	case "zip", "jar", "pyz":
		return KindZip
	case "7z":
		return KindSevenZip
	case "gz":
		return KindGzip
	case "bz", "bz2":
		return KindBzip2
	case "xz":
		return KindXz
	default:
		// appimage, exe, bat, "" (bare executable)
		return KindRaw
	}
}

// decideWithSniff runs Decide(ext) and, only when the effective
// extension is empty (the bare-executable case), consults a
// magic-bytes sniff of the file's leading bytes as a fallback sanity
// check per spec's dispatch table note. Any non-empty extension is
// authoritative and never overridden by the sniff.
func decideWithSniff(path, ext string) Kind {
	kind := Decide(ext)
	if ext != "" || kind != KindRaw {
		return kind
	}
	f, err := os.Open(path)
	if err != nil {
		return kind
	}
	defer f.Close()
	header := make([]byte, 262)
	n, _ := f.Read(header)
	if sniffed := SniffKind(header[:n]); sniffed != KindRaw {
		return sniffed
	}
	return kind
}

// tarCompressorFor names the compressor ("gzip", "bzip2" or "xz") a
// tar variant ext needs before the tar reader runs, or "" for a plain
// tar.
func tarCompressorFor(ext string) string {
	switch ext {
	case "tar.gz", "tgz":
		return "gzip"
	case "tar.bz", "tar.bz2", "tbz":
		return "bzip2"
	case "tar.xz", "txz":
		return "xz"
	default:
		return ""
	}
}
