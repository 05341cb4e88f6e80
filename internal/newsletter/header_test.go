package newsletter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeHeader(t *testing.T) {
	tests := []struct {
		name        string
		raw         []byte
		charset     string
		wantText    string
		wantDecoded bool
	}{
		{
			name:        "utf-8",
			raw:         []byte("GPT-4o crushes leaderboard"),
			charset:     "utf-8",
			wantText:    "GPT-4o crushes leaderboard",
			wantDecoded: true,
		},
		{
			name:        "latin-1 converted",
			raw:         []byte("caf\xe9"),
			charset:     "ISO-8859-1",
			wantText:    "café",
			wantDecoded: true,
		},
		{
			name:        "unknown charset falls back",
			raw:         []byte("TLDR"),
			charset:     "x-no-such-charset",
			wantText:    "TLDR",
			wantDecoded: false,
		},
		{
			name:        "missing charset falls back",
			raw:         []byte("TLDR"),
			charset:     "",
			wantText:    "TLDR",
			wantDecoded: false,
		},
		{
			name:        "invalid utf-8 under utf-8 declaration",
			raw:         []byte("bad \xff byte"),
			charset:     "utf-8",
			wantText:    "bad � byte",
			wantDecoded: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeHeader(tt.raw, tt.charset)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.wantDecoded, got.Decoded)
		})
	}
}

func TestDecodeHeader_FallbackNeverEmpty(t *testing.T) {
	for _, charset := range []string{"", " ", "bogus", "utf-99", "\x00"} {
		for _, raw := range [][]byte{[]byte("x"), []byte("\xff\xfe"), []byte("=?utf-8?q?a?=")} {
			got := DecodeHeader(raw, charset)
			assert.NotEmpty(t, got.Text, "charset %q raw %q", charset, raw)
			assert.False(t, got.Decoded)
		}
	}
}

func TestDecodeHeaderValue(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		want   string
		wantOK bool
	}{
		{
			name:   "plain",
			value:  "TLDR <dan@tldrnewsletter.com>",
			want:   "TLDR <dan@tldrnewsletter.com>",
			wantOK: true,
		},
		{
			name:   "base64 word",
			value:  "=?utf-8?B?R1BULTRvIGNydXNoZXMgbGVhZGVyYm9hcmQg?=",
			want:   "GPT-4o crushes leaderboard ",
			wantOK: true,
		},
		{
			name:   "q word with display address",
			value:  "=?iso-8859-1?Q?Ren=E9_Dupont?= <rene@example.com>",
			want:   "René Dupont <rene@example.com>",
			wantOK: true,
		},
		{
			name:   "adjacent words join without space",
			value:  "=?utf-8?q?Hello_?= =?utf-8?q?World?=",
			want:   "Hello World",
			wantOK: true,
		},
		{
			name:   "subject split across q words keeps encoded space",
			value:  "=?utf-8?Q?GPT-4o_crushes_?= =?utf-8?Q?leaderboard?=",
			want:   "GPT-4o crushes leaderboard",
			wantOK: true,
		},
		{
			name:   "trailing encoded spaces survive",
			value:  "=?utf-8?q?a=20_?=",
			want:   "a  ",
			wantOK: true,
		},
		{
			name:   "truncated q escape keeps the word",
			value:  "=?utf-8?q?caf=C?=",
			want:   "=?utf-8?q?caf=C?=",
			wantOK: false,
		},
		{
			name:   "unknown charset degrades",
			value:  "=?x-klingon?q?Qapla?=",
			want:   "Qapla",
			wantOK: false,
		},
		{
			name:   "broken base64 keeps the word",
			value:  "=?utf-8?b?***?=",
			want:   "=?utf-8?b?***?=",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeHeaderValue(tt.value)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
