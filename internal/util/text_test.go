package util

import (
	"reflect"
	"testing"
)

func TestSanitizePostgresText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain utf8",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "contains null byte",
			input: "hel\x00lo",
			want:  "hello",
		},
		{
			name:  "contains invalid utf8",
			input: string([]byte{'a', 0xff, 'b'}),
			want:  "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizePostgresText(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected sanitized value: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{
			name:  "under limit",
			input: "短文",
			max:   10,
			want:  "短文",
		},
		{
			name:  "over limit counts runes not bytes",
			input: "庆历四年春滕子京谪守巴陵郡",
			max:   5,
			want:  "庆历四年春...",
		},
		{
			name:  "zero max",
			input: "abc",
			max:   0,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateRunes(tt.input, tt.max); got != tt.want {
				t.Fatalf("TruncateRunes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitClassicalSentences(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "empty input",
			content: "",
			want:    nil,
		},
		{
			name:    "punctuated text",
			content: "环滁皆山也。其西南诸峰，林壑尤美。望之蔚然而深秀者，琅琊也。",
			want: []string{
				"环滁皆山也。",
				"其西南诸峰，林壑尤美。",
				"望之蔚然而深秀者，琅琊也。",
			},
		},
		{
			name:    "trailing fragment kept",
			content: "先帝创业未半而中道崩殂。今天下三分",
			want: []string{
				"先帝创业未半而中道崩殂。",
				"今天下三分",
			},
		},
		{
			name:    "unpunctuated text falls back to fixed width",
			content: "环滁皆山也其西南诸峰林壑尤美望之蔚然而深秀者琅琊也山行六七里渐闻水声潺潺而泻出于两峰之间者酿泉也",
			want: []string{
				"环滁皆山也其西南诸峰林壑尤美望之蔚然而深秀者琅琊也山行六七里",
				"渐闻水声潺潺而泻出于两峰之间者酿泉也",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitClassicalSentences(tt.content)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitClassicalSentences() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
