package archive

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeTempZip(t *testing.T, entries map[string][]byte, execBits map[string]bool) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "*.zip")
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, data := range entries {
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
		if execBits[name] {
			hdr.SetMode(0o755 | os.ModePerm&0o100)
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return f.Name()
}

// Regression: a zip containing a directory entry whose name coincides
// with the wanted executable name must never select the directory.
func TestSelectOneNeverSelectsDirectoryNamedLikeExecutable(t *testing.T) {
	payload := []byte("#!/bin/sh\necho precious\n")
	path := writeTempZip(t, map[string][]byte{
		"precious/":         nil,
		"precious/precious": payload,
		"precious/README":   []byte("docs"),
	}, map[string]bool{"precious/precious": true})

	members, closeFn, err := readZipMembers(path)
	if err != nil {
		t.Fatalf("readZipMembers: %v", err)
	}
	defer closeFn()

	// The directory entry "precious/" has empty size and IsDir=true;
	// a naive basename match could still confuse "precious" against
	// the directory if size/IsDir weren't checked.
	res, err := selectAndRead(members, "precious", false)
	if err != nil {
		t.Fatalf("selectAndRead: %v", err)
	}
	if res.MemberName != "precious" {
		t.Errorf("MemberName = %q, want precious", res.MemberName)
	}
	if !bytes.Equal(res.Data, payload) {
		t.Errorf("Data = %q, want %q", res.Data, payload)
	}
}

// Starts-with match on Windows for a versioned, platform-suffixed exe.
func TestSelectOneStartsWithMatchOnWindows(t *testing.T) {
	payload := []byte("binary contents")
	path := writeTempZip(t, map[string][]byte{
		"tool-v1.2.3-x86_64-pc-windows-msvc.exe": payload,
	}, nil)

	members, closeFn, err := readZipMembers(path)
	if err != nil {
		t.Fatalf("readZipMembers: %v", err)
	}
	defer closeFn()

	res, err := selectAndRead(members, "tool", true)
	if err != nil {
		t.Fatalf("selectAndRead: %v", err)
	}
	if res.MemberName != "tool-v1.2.3-x86_64-pc-windows-msvc.exe" {
		t.Errorf("MemberName = %q", res.MemberName)
	}
	if !bytes.Equal(res.Data, payload) {
		t.Errorf("Data mismatch")
	}
}

func TestSelectOneSuggestsClosestNameOnMiss(t *testing.T) {
	members := []Member{
		{Name: "preciouz", Size: 4, ExecBit: true},
	}
	_, err := SelectOne(members, "precious", false)
	if err == nil {
		t.Fatal("expected ErrNoExecutableFound")
	}
	nef, ok := err.(*ErrNoExecutableFound)
	if !ok {
		t.Fatalf("got %T, want *ErrNoExecutableFound", err)
	}
	if nef.Suggestion != "preciouz" {
		t.Errorf("Suggestion = %q, want preciouz", nef.Suggestion)
	}
}

func TestCommonPrefixFlattensSingleTopDir(t *testing.T) {
	members := []Member{
		{Name: "precious/precious"},
		{Name: "precious/README"},
	}
	if got := CommonPrefix(members); got != "precious" {
		t.Errorf("CommonPrefix = %q, want precious", got)
	}
}

func TestCommonPrefixEmptyWhenNoSharedDir(t *testing.T) {
	members := []Member{
		{Name: "a/file"},
		{Name: "b/file"},
	}
	if got := CommonPrefix(members); got != "" {
		t.Errorf("CommonPrefix = %q, want empty", got)
	}
}

func TestNormalizeExtractPathRejectsParentEscape(t *testing.T) {
	if _, err := NormalizeExtractPath("../../etc/passwd", ""); err == nil {
		t.Fatal("expected ErrUnsafePath for a path containing ..")
	}
	if _, err := NormalizeExtractPath("/etc/passwd", ""); err == nil {
		t.Fatal("expected ErrUnsafePath for an absolute path")
	}
	got, err := NormalizeExtractPath("precious/precious", "precious")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "precious" {
		t.Errorf("got %q, want precious", got)
	}
}

func TestExtractAllRejectsSymlinkEscape(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "*.zip")
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	hdr := &zip.FileHeader{Name: "evil-link", Method: zip.Store}
	hdr.SetMode(os.ModeSymlink | 0o777)
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte("../../etc/passwd"))
	zw.Close()
	f.Close()

	destDir := t.TempDir()
	if err := ExtractAll(f.Name(), "zip", destDir); err != nil {
		t.Fatalf("ExtractAll should skip symlinks rather than fail: %v", err)
	}
	if _, err := os.Stat(filepath.Join(destDir, "evil-link")); !os.IsNotExist(err) {
		t.Errorf("symlink member should not have been materialized")
	}
}

// A bare-named asset with no extension at all (Stage A keeps it as
// ext="") can still genuinely be a zip; the magic-bytes sniff fallback
// must recognize that case rather than passing the zip bytes through
// as if they were the executable itself.
func TestExtractSniffsUnextendedZip(t *testing.T) {
	payload := []byte("binary contents")
	path := writeTempZip(t, map[string][]byte{
		"tool": payload,
	}, map[string]bool{"tool": true})

	// Simulate a release asset published with no extension at all by
	// renaming the temp file to strip ".zip".
	noExtPath := path[:len(path)-len(".zip")]
	if err := os.Rename(path, noExtPath); err != nil {
		t.Fatal(err)
	}

	res, err := Extract(noExtPath, "", "tool", false)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !bytes.Equal(res.Data, payload) {
		t.Errorf("Data = %q, want %q", res.Data, payload)
	}
}

func TestDecideDispatchTable(t *testing.T) {
	cases := map[string]Kind{
		"tar":     KindTar,
		"tar.gz":  KindTar,
		"tgz":     KindTar,
		"tar.bz2": KindTar,
		"tbz":     KindTar,
		"tar.xz":  KindTar,
		"txz":     KindTar,
		"zip":     KindZip,
		"jar":     KindZip,
		"7z":      KindSevenZip,
		"gz":      KindGzip,
		"bz2":     KindBzip2,
		"bz":      KindBzip2,
		"xz":      KindXz,
		"":        KindRaw,
		"exe":     KindRaw,
		"bat":     KindRaw,
		"appimage": KindRaw,
	}
	for ext, want := range cases {
		if got := Decide(ext); got != want {
			t.Errorf("Decide(%q) = %v, want %v", ext, got, want)
		}
	}
}
