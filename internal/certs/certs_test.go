package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io/fs"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testCert returns a self-signed CA certificate in PEM form.
func testCert(tb testing.TB, name string) string {
	tb.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(tb, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: name},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(tb, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
}

func writeFile(tb testing.TB, dir, name, content string) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	require.NoError(tb, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestBuild(t *testing.T) {
	roots := []string{"root-1", "root-2", "root-3"}
	builder := Builder{Roots: func() []string { return roots }}

	t.Run("no bundle", func(t *testing.T) {
		store, err := builder.Build(nil)
		require.NoError(t, err)
		require.Equal(t, roots, store.Certificates())
		require.Empty(t, store.Custom())
	})

	t.Run("single bundle", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "a.pem", "custom-a")
		store, err := builder.Build([]string{path})
		require.NoError(t, err)
		require.Equal(t, []string{"root-1", "root-2", "root-3", "custom-a"}, store.Certificates())
		require.Equal(t, 4, store.Len())
	})

	t.Run("bundle list keeps order", func(t *testing.T) {
		dir := t.TempDir()
		paths := []string{
			writeFile(t, dir, "c.pem", "custom-c"),
			writeFile(t, dir, "a.pem", "custom-a"),
			writeFile(t, dir, "b.pem", "custom-b"),
		}
		store, err := builder.Build(paths)
		require.NoError(t, err)
		require.Equal(t, roots, store.Roots())
		require.Equal(t, []string{"custom-c", "custom-a", "custom-b"}, store.Custom())
	})

	t.Run("duplicates are kept", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "a.pem", "custom-a")
		store, err := builder.Build([]string{path, path})
		require.NoError(t, err)
		require.Equal(t, []string{"custom-a", "custom-a"}, store.Custom())
	})

	t.Run("missing file", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "nope.pem")
		_, err := builder.Build([]string{missing})
		require.ErrorIs(t, err, fs.ErrNotExist)

		var rerr *ReadError
		require.ErrorAs(t, err, &rerr)
		require.Equal(t, missing, rerr.Path)
		require.Contains(t, err.Error(), "certs: read ca bundle "+missing)
	})

	t.Run("files are read every time", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "a.pem", "first")
		store, err := builder.Build([]string{path})
		require.NoError(t, err)
		require.Equal(t, []string{"first"}, store.Custom())

		writeFile(t, dir, "a.pem", "second")
		store, err = builder.Build([]string{path})
		require.NoError(t, err)
		require.Equal(t, []string{"second"}, store.Custom())
	})

	t.Run("custom reader", func(t *testing.T) {
		var read []string
		b := Builder{
			Roots: func() []string { return nil },
			ReadFile: func(path string) ([]byte, error) {
				read = append(read, path)
				return []byte("pem:" + path), nil
			},
		}
		store, err := b.Build([]string{"x", "y"})
		require.NoError(t, err)
		require.Equal(t, []string{"x", "y"}, read)
		require.Equal(t, []string{"pem:x", "pem:y"}, store.Certificates())
	})
}

func TestPool(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		dir := t.TempDir()
		root := testCert(t, "root")
		path := writeFile(t, dir, "corp.pem", testCert(t, "corp"))
		store, err := Builder{Roots: func() []string { return []string{root} }}.Build([]string{path})
		require.NoError(t, err)

		pool, err := store.Pool()
		require.NoError(t, err)
		require.NotNil(t, pool)
	})

	t.Run("custom bundle without certificates", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "junk.pem", "not a certificate")
		store, err := Builder{Roots: func() []string { return []string{testCert(t, "root")} }}.Build([]string{path})
		require.NoError(t, err)

		_, err = store.Pool()
		require.ErrorIs(t, err, errNoCertificates)
	})
}

func TestSplitPEM(t *testing.T) {
	a, b := testCert(t, "a"), testCert(t, "b")
	key := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte("k")}))

	got := SplitPEM([]byte(a + key + "# comment\n" + b))
	require.Equal(t, []string{a, b}, got)
	require.Empty(t, SplitPEM([]byte("nothing here")))
}
