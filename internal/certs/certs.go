// Package certs assembles the certificate authorities trusted by a model
// connection.
package certs

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
)

// Store is an ordered list of PEM encoded certificates: the platform roots
// followed by the custom bundles, in the order they were given. Duplicates
// are kept.
type Store struct {
	roots  []string
	custom []string
}

// Roots returns the platform part of the store.
func (s *Store) Roots() []string { return slices.Clone(s.roots) }

// Custom returns the custom bundles, one entry per file.
func (s *Store) Custom() []string { return slices.Clone(s.custom) }

// Certificates returns roots followed by custom bundles.
func (s *Store) Certificates() []string {
	return slices.Concat(s.roots, s.custom)
}

// Len is the number of entries in the store.
func (s *Store) Len() int { return len(s.roots) + len(s.custom) }

// Pool parses the store into a pool usable by crypto/tls. When the store
// carries no platform roots, the pool starts from [x509.SystemCertPool] so
// platforms without a readable bundle file still trust their roots.
func (s *Store) Pool() (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	if len(s.roots) == 0 {
		if sys, err := x509.SystemCertPool(); err == nil {
			pool = sys
		}
	}
	for _, cert := range s.roots {
		pool.AppendCertsFromPEM([]byte(cert))
	}
	for i, cert := range s.custom {
		if !pool.AppendCertsFromPEM([]byte(cert)) {
			return nil, fmt.Errorf("certs: custom bundle %d: %w", i, errNoCertificates)
		}
	}
	return pool, nil
}

var errNoCertificates = errors.New("no certificates found")

// ReadError reports a custom bundle that could not be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("certs: read ca bundle %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Builder builds stores. The zero value uses [SystemRoots] and [os.ReadFile].
type Builder struct {
	// Roots returns the platform root certificates.
	Roots func() []string
	// ReadFile reads a custom bundle.
	ReadFile func(path string) ([]byte, error)
}

// Build returns the platform roots followed by the content of every path.
// Files are read on every call; a file that cannot be read aborts the build.
func (b Builder) Build(paths []string) (*Store, error) {
	roots := b.Roots
	if roots == nil {
		roots = SystemRoots
	}
	read := b.ReadFile
	if read == nil {
		read = os.ReadFile
	}

	store := &Store{roots: slices.Clone(roots())}
	for _, path := range paths {
		bts, err := read(path)
		if err != nil {
			return nil, &ReadError{Path: path, Err: err}
		}
		store.custom = append(store.custom, string(bts))
	}
	return store, nil
}

// bundleFiles are the well-known locations of the platform root bundle.
var bundleFiles = []string{
	"/etc/ssl/certs/ca-certificates.crt",                // Debian/Ubuntu/Gentoo etc.
	"/etc/pki/tls/certs/ca-bundle.crt",                  // Fedora/RHEL 6
	"/etc/ssl/ca-bundle.pem",                            // OpenSUSE
	"/etc/pki/tls/cacert.pem",                           // OpenELEC
	"/etc/pki/ca-trust/extracted/pem/tls-ca-bundle.pem", // CentOS/RHEL 7
	"/etc/ssl/cert.pem",                                 // Alpine, macOS, BSDs
	"/usr/local/etc/ssl/cert.pem",                       // FreeBSD
}

// SystemRoots returns the platform root certificates, one PEM block per
// entry, in bundle order. The bundle is read once per process.
var SystemRoots = sync.OnceValue(func() []string {
	files := bundleFiles
	if f := os.Getenv("SSL_CERT_FILE"); f != "" {
		files = append([]string{f}, files...)
	}
	for _, f := range files {
		bts, err := os.ReadFile(f) //nolint:gosec
		if err != nil {
			continue
		}
		if roots := SplitPEM(bts); len(roots) > 0 {
			return roots
		}
	}
	return nil
})

// SplitPEM splits a bundle into its CERTIFICATE blocks, re-encoded one by
// one. Anything else in the input is skipped.
func SplitPEM(bts []byte) []string {
	var out []string
	for {
		var block *pem.Block
		block, bts = pem.Decode(bts)
		if block == nil {
			return out
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		out = append(out, string(pem.EncodeToMemory(block)))
	}
}
