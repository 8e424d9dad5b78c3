// Package resolve maps a URL to its destination inside the download
// directory. The mapping is deterministic so identical URLs always land
// on the same destination and the claim layer can arbitrate them.
package resolve

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tanq16/grablist/internal/utils"
)

var filenameRegex = regexp.MustCompile(`[^a-zA-Z0-9_\-\. ]+`)

// Error reports a URL that cannot be mapped to a destination.
type Error struct {
	URL    string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cannot resolve '%s': %s", e.URL, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Kind() utils.ErrorKind {
	return utils.KindResolution
}

// Validate checks that raw is a downloadable URL: parseable, http or
// https scheme, and a host.
func Validate(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &Error{URL: raw, Reason: "not a valid URL", Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &Error{URL: raw, Reason: fmt.Sprintf("unsupported scheme '%s'", u.Scheme)}
	}
	if u.Host == "" {
		return &Error{URL: raw, Reason: "missing host"}
	}
	return nil
}

// Destination derives the output path for a URL inside dir. The filename
// is the URL's final path segment, sanitized; URLs without a usable
// segment fall back to the md5 hex of the full URL so every valid URL
// has a deterministic home. The result is guaranteed to sit directly
// inside dir.
func Destination(dir, raw string) (string, error) {
	if err := Validate(raw); err != nil {
		return "", err
	}
	u, _ := url.Parse(raw)
	name := filenameFor(u, raw)
	return join(dir, raw, name)
}

// DestinationName places an explicitly requested filename inside dir,
// used when a list entry overrides the derived name.
func DestinationName(dir, raw, name string) (string, error) {
	if err := Validate(raw); err != nil {
		return "", err
	}
	if name == "" || strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return "", &Error{URL: raw, Reason: fmt.Sprintf("unsafe output name '%s'", name)}
	}
	return join(dir, raw, name)
}

func filenameFor(u *url.URL, raw string) string {
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == ".." || base == "" {
		return hashName(raw)
	}
	base = filenameRegex.ReplaceAllString(base, "_")
	if strings.Trim(base, "_. ") == "" {
		return hashName(raw)
	}
	return base
}

// avoid headaches with URL symbols such as '/', '?', etc.
func hashName(raw string) string {
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func join(dir, raw, name string) (string, error) {
	dest := filepath.Join(dir, name)
	if filepath.Dir(dest) != filepath.Clean(dir) {
		return "", &Error{URL: raw, Reason: "destination escapes download directory"}
	}
	return dest, nil
}
