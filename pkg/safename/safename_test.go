package safename

import (
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"
)

// --- Sanitize Tests ---

func TestSanitize_Fallbacks(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Empty", ""},
		{"OnlySlashes", "///"},
		{"OnlyReserved", "???"},
		{"OnlyBackslashes", `\\\`},
		{"OnlyControlChars", "\x00\x01\x1f\x7f"},
		{"OnlyWhitespace", "   \t  "},
		{"OnlyDots", "..."},
		{"OnlyCJK", "日本語の記事"},
		{"OnlyCyrillic", "статья"},
		{"OnlyEmoji", "😀🎉"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != "untitled" {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, "untitled")
			}
		})
	}
}

func TestSanitize_Transformations(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"AlreadySafe", "report.pdf", "report.pdf"},
		{"AlreadySafeWithUnderscore", "my_file-v2.txt", "my_file-v2.txt"},
		{"ControlCharsStripped", "a\x00b\x1fc\x7fd", "abcd"},
		{"PathSeparatorsToDash", "a/b\\c", "a-b-c"},
		{"ReservedCharsToDash", `a<b>c:d"e|f?g*h`, "a-b-c-d-e-f-g-h"},
		{"WhitespaceCollapsed", "a   b \t c", "a-b-c"},
		{"DashRunsCollapsed", "a---b - - c", "a-b-c"},
		{"LeadingTrailingDotsTrimmed", "..name..", "name"},
		{"PercentDecoded", "My%20File", "My-File"},
		{"MalformedPercentKept", "100%zz", "100zz"},
		{"AccentedLettersKept", "café-résumé.txt", "café-résumé.txt"},
		{"UppercaseAccentsKept", "ÉTÉ_À_PARIS", "ÉTÉ_À_PARIS"},
		{"EmojiDeletedNotReplaced", "résumé 😀 final", "résumé--final"},
		{"MixedScriptKeepsLatin", "報告report書", "report"},
		{"SymbolsDeleted", "a(b)c&d", "abcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.expected {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

var safeAlphabet = regexp.MustCompile(`^[\w.\-` + AccentedLetters + `]+$`)

func TestSanitize_Totality(t *testing.T) {
	// Every input, however hostile, must produce a non-empty, bounded,
	// allow-listed result.
	inputs := []string{
		"",
		"normal-name",
		strings.Repeat("x", 5000),
		strings.Repeat("/", 300),
		"%%%%%%",
		"%e4%b8%ad%e6%96%87", // valid escapes for CJK, decoded then deleted
		"\x00\x7f\x1f",
		"名前\\..\\..\\etc/passwd",
		"con<>:\"|?*aux",
		strings.Repeat("é", 300),
	}

	for _, input := range inputs {
		got := Sanitize(input)
		if got == "" {
			t.Errorf("Sanitize(%q) returned empty string", input)
		}
		if n := utf8.RuneCountInString(got); n > 100 {
			t.Errorf("Sanitize(%q) length = %d runes, want <= 100", input, n)
		}
		if !safeAlphabet.MatchString(got) {
			t.Errorf("Sanitize(%q) = %q contains characters outside the allow-list", input, got)
		}
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"report.pdf",
		"untitled",
		"My-Report-Final-2024",
		"café-résumé",
		strings.Repeat("a", 100),
	}

	for _, input := range inputs {
		once := Sanitize(input)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestSanitize_TruncationNeverEndsInSeparator(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"DashAtBoundary", strings.Repeat("a", 99) + "-" + strings.Repeat("b", 50)},
		{"DotRunAtBoundary", strings.Repeat("a", 97) + "..." + strings.Repeat("b", 50)},
		{"UnderscoreAtBoundary", strings.Repeat("a", 99) + "_" + strings.Repeat("b", 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.input)
			if n := utf8.RuneCountInString(got); n > 100 {
				t.Fatalf("Sanitize() length = %d runes, want <= 100", n)
			}
			if strings.HasSuffix(got, "-") || strings.HasSuffix(got, ".") || strings.HasSuffix(got, "_") {
				t.Errorf("Sanitize() = %q ends in a separator after truncation", got)
			}
		})
	}
}

func TestSanitize_MultibyteTruncation(t *testing.T) {
	got := Sanitize(strings.Repeat("é", 150))
	if n := utf8.RuneCountInString(got); n != 100 {
		t.Errorf("rune count = %d, want 100", n)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncation produced invalid UTF-8: %q", got)
	}
}

// --- PDFStorageKey Tests ---

var pdfKeyPattern = regexp.MustCompile(`^pdfs/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}_[^/]+\.pdf$`)

func TestPDFStorageKey_Structure(t *testing.T) {
	inputs := []string{
		"report.pdf",
		"My Report (Final) — 2024.pdf",
		"",
		"日本語.PDF",
		strings.Repeat("a", 300) + ".pdf",
	}

	for _, input := range inputs {
		key := PDFStorageKey(input)
		if !pdfKeyPattern.MatchString(key) {
			t.Errorf("PDFStorageKey(%q) = %q, does not match pdfs/<uuid>_<name>.pdf", input, key)
		}
		name := key[len("pdfs/")+37 : len(key)-len(".pdf")] // 36-char uuid + "_"
		if utf8.RuneCountInString(name) > 50 {
			t.Errorf("PDFStorageKey(%q) name part %q exceeds 50 runes", input, name)
		}
	}
}

func TestPDFStorageKey_Uniqueness(t *testing.T) {
	a := PDFStorageKey("same-name.pdf")
	b := PDFStorageKey("same-name.pdf")
	if a == b {
		t.Errorf("two keys for identical input collided: %q", a)
	}
}

func TestPDFStorageKey_DeterministicWithInjectedSource(t *testing.T) {
	gen := NewKeyGenerator(func() string { return "00000000-0000-4000-8000-000000000000" })

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Simple", "report.pdf", "pdfs/00000000-0000-4000-8000-000000000000_report.pdf"},
		{"ExtensionCaseInsensitive", "report.PDF", "pdfs/00000000-0000-4000-8000-000000000000_report.pdf"},
		{"NoExtension", "report", "pdfs/00000000-0000-4000-8000-000000000000_report.pdf"},
		{"Empty", "", "pdfs/00000000-0000-4000-8000-000000000000_untitled.pdf"},
		{"AllCJK", "日本語.pdf", "pdfs/00000000-0000-4000-8000-000000000000_untitled.pdf"},
		{"SpacesAndSymbols", "My Report (Final) — 2024.pdf", "pdfs/00000000-0000-4000-8000-000000000000_My-Report-Final--2024.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gen.PDFStorageKey(tt.input); got != tt.expected {
				t.Errorf("PDFStorageKey(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPDFStorageKey_NamePartNotRetrimmed(t *testing.T) {
	// The 50-rune cap is applied after sanitization and deliberately does
	// not strip a separator landing on the boundary.
	gen := NewKeyGenerator(func() string { return "00000000-0000-4000-8000-000000000000" })
	input := strings.Repeat("a", 49) + "-" + strings.Repeat("b", 20) + ".pdf"

	got := gen.PDFStorageKey(input)
	want := "pdfs/00000000-0000-4000-8000-000000000000_" + strings.Repeat("a", 49) + "-.pdf"
	if got != want {
		t.Errorf("PDFStorageKey() = %q, want %q", got, want)
	}
}

// --- PDFTitle Tests ---

func TestPDFTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Empty", "", "Untitled PDF"},
		{"OnlyExtension", ".pdf", "Untitled PDF"},
		{"OnlySeparators", "___---.pdf", "Untitled PDF"},
		{"Simple", "report.pdf", "report"},
		{"UppercaseExtension", "report.PDF", "report"},
		{"SeparatorsToSpaces", "my_report-final.pdf", "my report final"},
		{"PercentDecoded", "My%20Report.pdf", "My Report"},
		{"MalformedPercentKept", "100%zz_done.pdf", "100%zz done"},
		{"WhitespaceCollapsed", "a   b\t\tc.pdf", "a b c"},
		{"NonLatinPassesThrough", "日本語の記事.pdf", "日本語の記事"},
		{"SymbolsPassThrough", "Q&A (2024) — notes.pdf", "Q&A (2024) — notes"},
		{"OnlyStripsTrailingExtension", "report.pdf.bak", "report.pdf.bak"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PDFTitle(tt.input); got != tt.expected {
				t.Errorf("PDFTitle(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPDFTitle_NeverEmpty(t *testing.T) {
	inputs := []string{"", ".pdf", "%%%.pdf", "   .pdf", "_.pdf"}
	for _, input := range inputs {
		if got := PDFTitle(input); got == "" {
			t.Errorf("PDFTitle(%q) returned empty string", input)
		}
	}
}

// --- ExtractStorageKey Tests ---

func TestExtractStorageKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"AbsoluteURL", "https://x.com/pdfs/a.pdf", "pdfs/a.pdf"},
		{"AbsoluteURLWithPort", "https://x.com:8443/pdfs/a.pdf", "pdfs/a.pdf"},
		{"AbsoluteURLKeepsEncoding", "https://x.com/pdfs/a%20b.pdf", "pdfs/a%20b.pdf"},
		{"AbsoluteURLEmptyPath", "https://x.com", ""},
		{"BarePathNoOp", "pdfs/a.pdf", "pdfs/a.pdf"},
		{"BarePathOneSlash", "/pdfs/a.pdf", "pdfs/a.pdf"},
		{"BarePathManySlashes", "///pdfs/a.pdf", "pdfs/a.pdf"},
		{"NotAURL", "not a url/pdfs/a.pdf", "not a url/pdfs/a.pdf"},
		{"SchemeWithoutHost", "file:///pdfs/a.pdf", "pdfs/a.pdf"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractStorageKey(tt.input); got != tt.expected {
				t.Errorf("ExtractStorageKey(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
