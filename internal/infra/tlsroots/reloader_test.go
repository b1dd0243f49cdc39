package tlsroots

import (
	"crypto/x509"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yndnr/recordsvc/internal/telemetry/logger"
)

func quietLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.New(logger.Config{Level: "error", Output: io.Discard})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func commonName(t *testing.T, r *KeyPairReloader) string {
	t.Helper()
	cert, err := r.GetCertificate(nil)
	if err != nil || cert == nil {
		t.Fatalf("GetCertificate() = %v, %v", cert, err)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		t.Fatal(err)
	}
	return leaf.Subject.CommonName
}

func TestNewKeyPairReloader(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, "first")

	r, err := NewKeyPairReloader(certFile, keyFile, WithLogger(quietLogger(t)))
	if err != nil {
		t.Fatalf("NewKeyPairReloader() error = %v", err)
	}
	defer r.Stop()

	if got := commonName(t, r); got != "first" {
		t.Errorf("CommonName = %q, want first", got)
	}

	cfg := r.ServerConfig()
	if cfg.GetCertificate == nil {
		t.Error("ServerConfig() must set GetCertificate")
	}
}

func TestNewKeyPairReloader_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := NewKeyPairReloader(filepath.Join(dir, "a.crt"), filepath.Join(dir, "a.key")); err == nil {
		t.Error("expected error for missing files")
	}

	bad := filepath.Join(dir, "bad.crt")
	if err := os.WriteFile(bad, []byte("not a cert"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewKeyPairReloader(bad, bad); err == nil {
		t.Error("expected error for invalid PEM")
	}
}

func TestKeyPairReloader_StopIdempotent(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, "first")

	r, err := NewKeyPairReloader(certFile, keyFile, WithLogger(quietLogger(t)))
	if err != nil {
		t.Fatal(err)
	}
	r.Start()

	if err := r.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestKeyPairReloader_ReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, "first")

	r, err := NewKeyPairReloader(certFile, keyFile,
		WithLogger(quietLogger(t)),
		WithDebounce(20*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	r.Start()
	defer r.Stop()

	writeKeyPair(t, dir, "second")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if commonName(t, r) == "second" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("certificate not reloaded, CommonName = %q", commonName(t, r))
}

// waitForCommonName polls until the reloader serves want.
func waitForCommonName(t *testing.T, r *KeyPairReloader, want string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if commonName(t, r) == want {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("certificate not reloaded, CommonName = %q, want %q", commonName(t, r), want)
}

func TestKeyPairReloader_ReloadOnRename(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, "first")

	r, err := NewKeyPairReloader(certFile, keyFile,
		WithLogger(quietLogger(t)),
		WithDebounce(20*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	r.Start()
	defer r.Stop()

	staging := filepath.Join(dir, "staging")
	if err := os.Mkdir(staging, 0o700); err != nil {
		t.Fatal(err)
	}
	newCert, newKey := writeKeyPair(t, staging, "second")
	if err := os.Rename(newKey, keyFile); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(newCert, certFile); err != nil {
		t.Fatal(err)
	}

	waitForCommonName(t, r, "second")
}

func TestKeyPairReloader_ReloadOnSymlinkSwap(t *testing.T) {
	dir := t.TempDir()

	// Layout of a Kubernetes secret volume:
	// server.crt -> ..data/server.crt, ..data -> v1
	v1 := filepath.Join(dir, "v1")
	if err := os.Mkdir(v1, 0o700); err != nil {
		t.Fatal(err)
	}
	writeKeyPair(t, v1, "first")
	if err := os.Symlink("v1", filepath.Join(dir, "..data")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	for _, name := range []string{"server.crt", "server.key"} {
		if err := os.Symlink(filepath.Join("..data", name), filepath.Join(dir, name)); err != nil {
			t.Fatal(err)
		}
	}

	r, err := NewKeyPairReloader(certFile, keyFile,
		WithLogger(quietLogger(t)),
		WithDebounce(20*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	r.Start()
	defer r.Stop()

	v2 := filepath.Join(dir, "v2")
	if err := os.Mkdir(v2, 0o700); err != nil {
		t.Fatal(err)
	}
	writeKeyPair(t, v2, "second")
	tmpLink := filepath.Join(dir, "..data_tmp")
	if err := os.Symlink("v2", tmpLink); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmpLink, filepath.Join(dir, "..data")); err != nil {
		t.Fatal(err)
	}

	waitForCommonName(t, r, "second")
}

func TestKeyPairReloader_KeepsCertOnBadReload(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, "first")

	r, err := NewKeyPairReloader(certFile, keyFile, WithLogger(quietLogger(t)))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Stop()

	if err := os.WriteFile(keyFile, []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := r.Reload(); err == nil {
		t.Error("Reload() expected error")
	}
	if got := commonName(t, r); got != "first" {
		t.Errorf("CommonName = %q, want first", got)
	}
}
