package platform

import "testing"

func TestCurrentIsCached(t *testing.T) {
	a := Current()
	b := Current()
	if a != b {
		t.Fatalf("Current() not stable across calls: %v != %v", a, b)
	}
}

func TestGoarchToArch(t *testing.T) {
	cases := map[string]Arch{
		"amd64":   X86_64,
		"386":     X86,
		"arm64":   Aarch64,
		"arm":     Arm,
		"riscv64": Riscv64,
		"s390x":   S390x,
	}
	for goarch, want := range cases {
		if got := goarchToArch(goarch); got != want {
			t.Errorf("goarchToArch(%q) = %q, want %q", goarch, got, want)
		}
	}
}

func TestBitsForArch(t *testing.T) {
	if bitsForArch("386") != 32 {
		t.Errorf("386 should be 32-bit")
	}
	if bitsForArch("amd64") != 64 {
		t.Errorf("amd64 should be 64-bit")
	}
	if bitsForArch("arm64") != 64 {
		t.Errorf("arm64 should be 64-bit")
	}
}

func TestPlatformString(t *testing.T) {
	p := Platform{OS: Linux, Arch: X86_64, Bits: 64, Libc: LibcMusl}
	want := "linux/x86_64(64bit,libc=musl)"
	if p.String() != want {
		t.Errorf("String() = %q, want %q", p.String(), want)
	}
}

func TestIsWindows(t *testing.T) {
	if !(Platform{OS: Windows}).IsWindows() {
		t.Errorf("Windows platform should report IsWindows")
	}
	if (Platform{OS: Linux}).IsWindows() {
		t.Errorf("Linux platform should not report IsWindows")
	}
}
