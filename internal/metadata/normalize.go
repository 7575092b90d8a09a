package metadata

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tubesync/internal/config"
)

var separatorReplacer = strings.NewReplacer("/", "_", "\\", "_")

// Normalizer shapes a resolved key into a directory name.
type Normalizer struct {
	fallback    string
	stripPrefix string
	lowercase   bool
}

// NewNormalizer builds a normalizer from fetch settings. The prefix is only
// stripped for the playlist_title field, whose uploads playlists carry it.
func NewNormalizer(fetch config.Fetch) *Normalizer {
	n := &Normalizer{
		fallback:  fetch.DirectoryDefault,
		lowercase: fetch.Lowercase,
	}
	if fetch.DirectoryField == config.FieldPlaylistTitle {
		n.stripPrefix = fetch.StripPrefix
	}
	return n
}

// Normalize returns the directory name for key. The default key passes through
// untouched. A key that normalizes to nothing usable becomes the default.
func (n *Normalizer) Normalize(key string) string {
	if key == n.fallback {
		return key
	}
	if n.stripPrefix != "" {
		key = strings.TrimPrefix(key, n.stripPrefix)
	}
	if n.lowercase {
		key = cases.Lower(language.Und).String(key)
	}
	key = separatorReplacer.Replace(key)
	switch strings.TrimSpace(key) {
	case "", ".", "..":
		return n.fallback
	}
	return key
}
