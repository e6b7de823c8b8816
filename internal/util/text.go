package util

import "strings"

// SanitizePostgresText strips null bytes and invalid UTF-8 so a value can be
// stored in a text column.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// TruncateRunes shortens s to at most max runes, appending an ellipsis when
// anything was cut. Prompt payloads are bounded this way before they reach an
// upstream model.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// sentence-final marks in punctuated classical Chinese
const sentenceEnders = "。！？；!?;"

// SplitClassicalSentences splits punctuated or raw classical text into
// sentence-sized segments. Unpunctuated text falls back to fixed-width
// segments so downstream section numbering still works.
func SplitClassicalSentences(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	var out []string
	var b strings.Builder
	for _, r := range content {
		if r == '\n' || r == '\r' {
			continue
		}
		b.WriteRune(r)
		if strings.ContainsRune(sentenceEnders, r) {
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}

	if len(out) == 1 && !strings.ContainsAny(content, sentenceEnders) {
		return splitFixedWidth(out[0], 30)
	}
	return out
}

func splitFixedWidth(s string, width int) []string {
	runes := []rune(s)
	if len(runes) <= width {
		return []string{s}
	}
	var out []string
	for start := 0; start < len(runes); start += width {
		end := min(start+width, len(runes))
		out = append(out, string(runes[start:end]))
	}
	return out
}
