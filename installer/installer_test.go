package installer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInstallCreatesDirectoryAndWritesExecutableMode(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "bin")

	path, err := Install(Request{Dir: dir, Name: "rust-analyzer", Data: []byte("binary"), Windows: false})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("installed file missing: %v", err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("mode = %v, want 0755", info.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read installed file: %v", err)
	}
	if string(data) != "binary" {
		t.Errorf("data = %q", data)
	}
}

// When the target directory cannot be created, Install fails and
// leaves no directory at the target path.
func TestInstallDoesNotLeavePartialDirOnWriteFailure(t *testing.T) {
	base := t.TempDir()
	// Make Dir a path component that can't be created (a file sits
	// where a directory is wanted), forcing MkdirAll to fail before
	// any temp file is written.
	blocker := filepath.Join(base, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(blocker, "bin")

	_, err := Install(Request{Dir: dir, Name: "tool", Data: []byte("x")})
	if err == nil {
		t.Fatal("expected an error when the target directory cannot be created")
	}
	if _, err := os.Stat(dir); err == nil {
		t.Errorf("target directory %s exists after a failed Install", dir)
	}
}

func TestFinalNameRenameToIsVerbatim(t *testing.T) {
	got := FinalName("my-tool", "tool", "tool-linux-amd64", false)
	if got != "my-tool" {
		t.Errorf("got %q, want my-tool (verbatim, no extension appended)", got)
	}
}

func TestFinalNameBareExecutableGetsExeOnWindows(t *testing.T) {
	got := FinalName("", "shfmt", "", true)
	if got != "shfmt.exe" {
		t.Errorf("got %q, want shfmt.exe", got)
	}
}

func TestFinalNameArchiveMemberUsesWantWhenItMatchesOwnBasename(t *testing.T) {
	got := FinalName("", "precious", "precious", false)
	if got != "precious" {
		t.Errorf("got %q, want precious", got)
	}
}

// Spec scenario 5: a Windows zip ships
// "tool-v1.2.3-x86_64-pc-windows-msvc.exe" for project "tool" — the
// installed name is the requested exe name plus .exe, not the raw
// archive member basename.
func TestFinalNameArchiveMemberUsesWantNotMemberBasenameOnWindows(t *testing.T) {
	got := FinalName("", "tool", "tool-v1.2.3-x86_64-pc-windows-msvc.exe", true)
	if got != "tool.exe" {
		t.Errorf("got %q, want tool.exe", got)
	}
}

func TestFinalNameFallsBackToMemberBasenameWhenWantEmpty(t *testing.T) {
	got := FinalName("", "", "weird-member-name", false)
	if got != "weird-member-name" {
		t.Errorf("got %q, want weird-member-name", got)
	}
}
