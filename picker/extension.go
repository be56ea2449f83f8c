package picker

import (
	"regexp"
	"strconv"
	"strings"
)

// recognizedExtTokens is the closed set of extension tokens Stage A
// may consume, lower-cased. "tar" combines with a preceding compressor
// token (gz/bz2/bz/xz) the same way "tgz"/"tbz"/"txz" do as standalone
// tokens.
var recognizedExtTokens = map[string]bool{
	"appimage": true,
	"bat":      true,
	"bz":       true,
	"bz2":      true,
	"exe":      true,
	"gz":       true,
	"jar":      true,
	"phar":     true,
	"pyz":      true,
	"tar":      true,
	"tbz":      true,
	"tgz":      true,
	"txz":      true,
	"xz":       true,
	"zip":      true,
	"7z":       true,
}

// recognizedEffectiveExts is the closed set of *effective extensions*
// Stage A will accept once assembled (dotted where relevant).
var recognizedEffectiveExts = map[string]bool{
	"appimage": true,
	"bat":      true,
	"bz":       true,
	"bz2":      true,
	"exe":      true,
	"gz":       true,
	"jar":      true,
	"phar":     true,
	"pyz":      true,
	"tar":      true,
	"tar.bz":   true,
	"tar.bz2":  true,
	"tar.gz":   true,
	"tar.xz":   true,
	"tbz":      true,
	"tgz":      true,
	"txz":      true,
	"xz":       true,
	"zip":      true,
	"7z":       true,
	"":         true,
}

// osArchFalseExtTokens are tokens that look like an extension
// candidate (a bare dotted component) but are really an OS/arch/libc
// label, so Stage A must not mistake them for an unrecognized
// extension and reject the whole asset.
var osArchFalseExtTokens = map[string]bool{
	"linux": true, "darwin": true, "macos": true, "macosx": true, "osx": true,
	"windows": true, "win": true, "win32": true, "win64": true,
	"freebsd": true, "netbsd": true, "openbsd": true, "illumos": true, "solaris": true, "android": true,
	"amd64": true, "x86_64": true, "x64": true, "i386": true, "i486": true, "i586": true, "i686": true, "x86": true,
	"arm64": true, "aarch64": true, "arm": true, "armv5": true, "armv6": true, "armv7": true, "armhf": true, "armel": true,
	"ppc64le": true, "ppc64": true, "ppc": true, "riscv64": true,
	"mips": true, "mipsel": true, "mips64": true, "mips64el": true, "s390x": true, "sparc": true, "sparc64": true,
	"musl": true, "gnu": true, "gnueabi": true, "gnueabihf": true, "unknown": true, "pc": true, "apple": true,
	"all": true,
}

var versionFragmentRe = regexp.MustCompile(`^(?i)v?\d+(rc\d*|beta\d*|alpha\d*|pre\d*)?$`)

// isFalseExtensionToken reports whether token, read right-to-left as a
// candidate extension, is actually part of a version string or a
// platform label rather than a genuine extension.
func isFalseExtensionToken(token string) bool {
	lower := strings.ToLower(token)
	if lower == "" {
		return false
	}
	if _, err := strconv.Atoi(lower); err == nil {
		return true
	}
	if osArchFalseExtTokens[lower] {
		return true
	}
	if versionFragmentRe.MatchString(lower) {
		return true
	}
	return false
}

// EffectiveExtension computes the extension Stage A uses to classify
// name, per the right-to-left token consumption rule: starting from
// the right, a token is consumed while it is a recognized extension
// token. The first token that is not stops the scan, whether it is a
// false-extension token (version/platform label) or any other
// unrecognized token; everything consumed to its right, joined back
// with dots and lower-cased, is the effective extension. An empty
// result means "bare executable".
//
// The return's second value reports whether the computed extension is
// in the closed recognized set (recognizedEffectiveExts); an
// extension that is non-empty and not recognized means the caller
// should reject the asset in Stage A.
func EffectiveExtension(name string) (ext string, recognized bool) {
	parts := strings.Split(name, ".")
	if len(parts) == 1 {
		return "", true
	}

	var consumed []string
	for i := len(parts) - 1; i >= 1; i-- {
		token := parts[i]
		lower := strings.ToLower(token)
		if recognizedExtTokens[lower] {
			consumed = append([]string{lower}, consumed...)
			continue
		}
		if isFalseExtensionToken(token) {
			// A false-extension token terminates the *extension*
			// assembly (it's not itself part of the extension) but
			// does not register as a rejection; we simply stop here,
			// treating everything already consumed as the effective
			// extension.
			break
		}
		break
	}

	ext = strings.Join(consumed, ".")
	_, ok := recognizedEffectiveExts[ext]
	return ext, ok
}

// IsArchiveExt reports whether ext (as returned by EffectiveExtension)
// names a container format rather than a bare/compressed executable.
func IsArchiveExt(ext string) bool {
	switch ext {
	case "tar", "tar.gz", "tgz", "tar.bz", "tar.bz2", "tbz", "tar.xz", "txz",
		"zip", "jar", "pyz", "7z":
		return true
	default:
		return false
	}
}
