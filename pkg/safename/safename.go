// Package safename normalizes untrusted, caller-supplied names into strings
// that are safe to use as filenames, URL fragments, and object-storage keys.
// Every function is total: malformed input degrades to a deterministic
// fallback instead of returning an error.
package safename

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	fallbackName  = "untitled"
	fallbackTitle = "Untitled PDF"

	maxNameLength    = 100 // Cap for sanitized names
	maxKeyNameLength = 50  // Tighter cap for the human-readable key suffix

	pdfKeyPrefix = "pdfs/"
	pdfKeySuffix = ".pdf"
)

// AccentedLetters is the fixed set of Latin-1 accented letters permitted in
// safe names. Characters outside this set and the ASCII word alphabet are
// deleted during sanitization, so names written entirely in other scripts
// (CJK, Cyrillic, Arabic, ...) sanitize to "untitled".
const AccentedLetters = "àáâãäåèéêëìíîïòóôõöùúûüýÿñçÀÁÂÃÄÅÈÉÊËÌÍÎÏÒÓÔÕÖÙÚÛÜÝÑÇ"

var (
	controlChars     = regexp.MustCompile("[\x00-\x1f\x7f]")                   // C0 controls and DEL
	pathSeparators   = regexp.MustCompile(`[/\\]`)                             // Unix and Windows separators
	reservedChars    = regexp.MustCompile(`[<>:"|?*]`)                         // Reserved by common filesystems
	dashRuns         = regexp.MustCompile(`[\s-]+`)                            // Whitespace/dash runs -> single dash
	disallowedChars  = regexp.MustCompile(`[^\w.\-` + AccentedLetters + `]`)   // Everything outside the allow-list
	trailingSepRun   = regexp.MustCompile(`[-._]+$`)                           // Separator run left behind by truncation
	pdfExtension     = regexp.MustCompile(`(?i)\.pdf$`)                        // Trailing .pdf, any case
	separatorRuns    = regexp.MustCompile(`[-_]+`)                             // Dash/underscore runs -> single space (titles)
	whitespaceRuns   = regexp.MustCompile(`\s+`)                               // Whitespace runs -> single space (titles)
)

// decodeName attempts to remove URL percent-escapes from raw. A malformed
// escape sequence is not an error here: the undecoded original is returned
// unchanged so callers never see a decode failure.
func decodeName(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Sanitize converts a raw, untrusted name into a SafeName: non-empty, at
// most 100 characters, drawn only from ASCII word characters, dash, dot, and
// AccentedLetters. Input that is empty or reduces to nothing yields
// "untitled". Already-safe input passes through unchanged.
func Sanitize(raw string) string {
	if raw == "" {
		return fallbackName
	}

	name := decodeName(raw)
	name = controlChars.ReplaceAllString(name, "")
	name = pathSeparators.ReplaceAllString(name, "-")
	name = reservedChars.ReplaceAllString(name, "-")
	name = dashRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, ". \t\r\n")
	name = disallowedChars.ReplaceAllString(name, "")

	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
		// Truncation must not leave the name ending mid-separator
		name = trailingSepRun.ReplaceAllString(name, "")
	}

	if name == "" || name == "-" {
		return fallbackName
	}
	return name
}

// IDSource produces a fresh uniqueness token in canonical textual form.
// The default source is a version 4 UUID (128 random bits, hyphenated).
type IDSource func() string

// KeyGenerator builds collision-resistant object-storage keys. Uniqueness
// comes entirely from the ID source; the sanitized name suffix exists only
// so storage listings stay readable for humans.
type KeyGenerator struct {
	newID IDSource
}

// NewKeyGenerator creates a KeyGenerator. A nil source selects the
// crypto/rand-backed UUID source; tests substitute a deterministic one.
func NewKeyGenerator(src IDSource) *KeyGenerator {
	if src == nil {
		src = uuid.NewString
	}
	return &KeyGenerator{newID: src}
}

// PDFStorageKey derives an object-storage key for an uploaded PDF from its
// original filename. The result has the shape
// pdfs/<uuid>_<sanitized-name>.pdf where the name part is capped at 50
// characters. Two calls with the same filename never produce the same key.
func (g *KeyGenerator) PDFStorageKey(rawFilename string) string {
	base := pdfExtension.ReplaceAllString(rawFilename, "")
	name := Sanitize(base)
	if utf8.RuneCountInString(name) > maxKeyNameLength {
		name = string([]rune(name)[:maxKeyNameLength])
	}
	return pdfKeyPrefix + g.newID() + "_" + name + pdfKeySuffix
}

var defaultKeyGenerator = NewKeyGenerator(nil)

// PDFStorageKey is the package-level convenience using the default
// crypto/rand-backed ID source.
func PDFStorageKey(rawFilename string) string {
	return defaultKeyGenerator.PDFStorageKey(rawFilename)
}

// PDFTitle derives a human-readable display title from an upload filename.
// Unlike Sanitize it applies no character allow-list: non-Latin scripts and
// symbols pass through untouched, since the result is never used as a
// storage key. The result is never empty.
func PDFTitle(rawFilename string) string {
	title := pdfExtension.ReplaceAllString(rawFilename, "")
	title = decodeName(title)
	title = separatorRuns.ReplaceAllString(title, " ")
	title = whitespaceRuns.ReplaceAllString(title, " ")
	title = strings.TrimSpace(title)
	if title == "" {
		return fallbackTitle
	}
	return title
}

// ExtractStorageKey recovers a storage key from either a fully-qualified URL
// or a bare path. For a well-formed absolute URL the key is the URL path
// with its single leading slash removed; anything else is treated as a bare
// path with all leading slashes stripped.
func ExtractStorageKey(s string) string {
	if u, err := url.Parse(s); err == nil && u.Scheme != "" && u.Opaque == "" {
		return strings.TrimPrefix(u.EscapedPath(), "/")
	}
	return strings.TrimLeft(s, "/")
}
