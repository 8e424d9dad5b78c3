package resolve

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/grablist/internal/utils"
)

func TestValidate(t *testing.T) {
	valid := []string{
		"http://foo:8080/bar",
		"http://foo/bar",
		"https://foo/bar",
		"https://foo/bar/",
		"http://foo:8080/El%20Nino/",
	}
	for _, url := range valid {
		assert.NoError(t, Validate(url), "URL %q not accepted", url)
	}

	invalid := []string{
		"",
		"://localhost:21/some/file",
		"localhost:21/some/file",
		"ftp://foo/bar",
		"file:///etc/passwd",
		"🐵 🙈 🙉 🙊",
	}
	for _, url := range invalid {
		assert.Error(t, Validate(url), "URL %q accepted", url)
	}
}

func TestDestinationFromLastSegment(t *testing.T) {
	dest, err := Destination("/tmp/out", "https://example.test/files/a.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/out", "a.txt"), dest)
}

func TestDestinationDeterministic(t *testing.T) {
	first, err := Destination("/tmp/out", "https://example.test/a.txt")
	require.NoError(t, err)
	second, err := Destination("/tmp/out", "https://example.test/a.txt")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDestinationHashFallback(t *testing.T) {
	url := "https://example.test/"
	dest, err := Destination("/tmp/out", url)
	require.NoError(t, err)
	sum := md5.Sum([]byte(url))
	assert.Equal(t, filepath.Join("/tmp/out", hex.EncodeToString(sum[:])), dest)
}

func TestDestinationSanitizesSegment(t *testing.T) {
	dest, err := Destination("/tmp/out", "https://example.test/a%3Fb.txt")
	require.NoError(t, err)
	dir, name := filepath.Split(dest)
	assert.Equal(t, "/tmp/out/", dir)
	assert.NotContains(t, name, "?")
}

func TestDestinationNeverEscapesDir(t *testing.T) {
	// dot-dot segments fall back to the hash name instead of walking up
	dest, err := Destination("/tmp/out", "https://example.test/..")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", filepath.Dir(dest))

	_, err = DestinationName("/tmp/out", "https://example.test/x", "..")
	require.Error(t, err)

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, utils.KindResolution, rerr.Kind())
}

func TestDestinationName(t *testing.T) {
	dest, err := DestinationName("/tmp/out", "https://example.test/x", "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/out", "report.pdf"), dest)

	for _, name := range []string{"", "..", "a/b", `a\b`, "../escape"} {
		_, err := DestinationName("/tmp/out", "https://example.test/x", name)
		assert.Error(t, err, "name %q accepted", name)
	}
}

func TestErrorKindClassification(t *testing.T) {
	err := Validate("not a url")
	assert.Equal(t, utils.KindResolution, utils.KindOf(err))
}
