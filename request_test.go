package fetchbin

import "testing"

func TestNewInstallRequestRequiresProjectOrURL(t *testing.T) {
	_, err := NewInstallRequest(WithDir(t.TempDir()))
	assertInvalidRequest(t, err)
}

func TestNewInstallRequestRejectsBothProjectAndURL(t *testing.T) {
	_, err := NewInstallRequest(
		WithProject("owner/repo"),
		WithURL("https://example.com/tool"),
		WithDir(t.TempDir()),
	)
	assertInvalidRequest(t, err)
}

func TestNewInstallRequestTagRequiresProject(t *testing.T) {
	_, err := NewInstallRequest(WithURL("https://example.com/tool"), WithTag("v1.0.0"), WithDir(t.TempDir()))
	assertInvalidRequest(t, err)
}

func TestNewInstallRequestExtractAllIncompatibleWithExe(t *testing.T) {
	_, err := NewInstallRequest(
		WithProject("owner/repo"),
		WithExtractAll(true),
		WithExe("tool"),
		WithDir(t.TempDir()),
	)
	assertInvalidRequest(t, err)
}

func TestNewInstallRequestExtractAllIncompatibleWithRenameExeTo(t *testing.T) {
	_, err := NewInstallRequest(
		WithProject("owner/repo"),
		WithExtractAll(true),
		WithRenameExeTo("tool"),
		WithDir(t.TempDir()),
	)
	assertInvalidRequest(t, err)
}

func TestNewInstallRequestValid(t *testing.T) {
	req, err := NewInstallRequest(WithProject("owner/repo"), WithDir(t.TempDir()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.ForgeSelector != ForgeAuto {
		t.Errorf("ForgeSelector = %q, want auto default", req.ForgeSelector)
	}
}

func TestNewInstallRequestRejectsBadRegex(t *testing.T) {
	_, err := NewInstallRequest(WithProject("owner/repo"), WithDir(t.TempDir()), WithMatchingRegex("("))
	assertInvalidRequest(t, err)
}

func assertInvalidRequest(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	fe, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if fe.Kind != InvalidRequest {
		t.Errorf("Kind = %q, want %q", fe.Kind, InvalidRequest)
	}
}
