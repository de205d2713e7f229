package fetch

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/opencontainers/go-digest"
)

// verifier hashes a stream and checks it against the expected sums.
type verifier struct {
	md5Hash      hash.Hash
	md5Want      string
	sha256       digest.Digester
	sha256Prefix string
}

func newVerifier(md5Want, sha256Prefix string) *verifier {
	v := &verifier{
		md5Want:      strings.ToLower(md5Want),
		sha256Prefix: strings.ToLower(sha256Prefix),
	}
	if v.md5Want != "" {
		v.md5Hash = md5.New()
	}
	if v.sha256Prefix != "" {
		v.sha256 = digest.SHA256.Digester()
	}
	return v
}

// Writer returns the sink the downloaded bytes must be copied into, or nil
// when nothing is verified.
func (v *verifier) Writer() io.Writer {
	var ws []io.Writer
	if v.md5Hash != nil {
		ws = append(ws, v.md5Hash)
	}
	if v.sha256 != nil {
		ws = append(ws, v.sha256.Hash())
	}
	switch len(ws) {
	case 0:
		return nil
	case 1:
		return ws[0]
	default:
		return io.MultiWriter(ws...)
	}
}

func (v *verifier) Verify() error {
	if v.md5Hash != nil {
		if got := hex.EncodeToString(v.md5Hash.Sum(nil)); got != v.md5Want {
			return fmt.Errorf("md5 %s, want %s: %w", got, v.md5Want, ErrChecksumMismatch)
		}
	}
	if v.sha256 != nil {
		if got := v.sha256.Digest().Encoded(); !strings.HasPrefix(got, v.sha256Prefix) {
			return fmt.Errorf("sha256 %s, want prefix %s: %w", got, v.sha256Prefix, ErrChecksumMismatch)
		}
	}
	return nil
}

// CheckMD5 verifies the MD5 sum of the file at path.
func CheckMD5(path, want string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("failed to hash %s: %w", path, err)
	}

	if got := hex.EncodeToString(h.Sum(nil)); got != strings.ToLower(want) {
		return fmt.Errorf("%s: md5 %s, want %s: %w", path, got, want, ErrChecksumMismatch)
	}
	return nil
}

