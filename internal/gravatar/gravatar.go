// Package gravatar derives avatar URLs from email addresses.
//
// Gravatar addresses images by the MD5 of the lower-cased, trimmed email, so
// the same email always resolves to the same URL and no avatar ever needs to
// be stored.
package gravatar

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
)

const (
	// DefaultSize is the requested image size in pixels.
	DefaultSize = "200"

	// DefaultRating caps images at the "pg" audience rating.
	DefaultRating = "pg"

	// DefaultStyle is the fallback image style when the email has no gravatar.
	DefaultStyle = "mm"

	baseURL = "https://www.gravatar.com/avatar/"
)

// URL returns the avatar URL for an email address.
func URL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(normalized))

	params := url.Values{}
	params.Set("s", DefaultSize)
	params.Set("r", DefaultRating)
	params.Set("d", DefaultStyle)

	return baseURL + hex.EncodeToString(sum[:]) + "?" + params.Encode()
}
