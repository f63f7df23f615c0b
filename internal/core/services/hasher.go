package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// ContentHasher derives fingerprints from raw content.
// All fingerprints are lowercase hex SHA-256 digests.
type ContentHasher struct{}

// NewContentHasher creates a content hasher.
func NewContentHasher() *ContentHasher {
	return &ContentHasher{}
}

// HashBytes fingerprints raw bytes.
func (h *ContentHasher) HashBytes(b []byte) domain.Fingerprint {
	sum := sha256.Sum256(b)
	return domain.Fingerprint(hex.EncodeToString(sum[:]))
}

// HashText fingerprints the UTF-8 encoding of text.
func (h *ContentHasher) HashText(text string) domain.Fingerprint {
	return h.HashBytes([]byte(text))
}

// HashReference fingerprints a stable external reference such as a
// video identifier. The namespace and reference are NUL-separated, so two
// namespaces never share a fingerprint and ordinary text such as
// "youtube:<id>" does not hash to the same value.
func (h *ContentHasher) HashReference(namespace, ref string) domain.Fingerprint {
	return h.HashText("ref\x00" + namespace + "\x00" + ref)
}

// HashFile streams a file through the hash without loading it into memory.
func (h *ContentHasher) HashFile(path string) (domain.Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return domain.Fingerprint(hex.EncodeToString(hash.Sum(nil))), nil
}
