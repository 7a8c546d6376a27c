package httputil

import (
	"errors"
	"fmt"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanyaEf/rest-client/pkg/model"
)

func TestStatusCodeFromStatusLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want int
	}{
		{"HTTP/1.1 200 OK", 200},
		{"HTTP/1.0 404 Not Found", 404},
		{"HTTP/2 503 Service Unavailable", 503},
		{"HTTP/1.1 204 ", 204},
		{"HTTP/1.1 200", -1},
		{"HTTP/1.1 20 OK", -1},
		{"HTTP/1.1 2000 OK", -1},
		{"200 OK", -1},
		{"", -1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, StatusCodeFromStatusLine(tt.line))
		})
	}
}

func TestCharsetFromContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  string
	}{
		{"text/html; charset=UTF-8", "UTF-8"},
		{"text/html;charset=iso-8859-1; boundary=x", "iso-8859-1"},
		{"application/json", ""},
		{"", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CharsetFromContentType(tt.value))
		})
	}
}

func TestCharsetFromHeaders(t *testing.T) {
	headers := model.Headers{
		{Name: "Accept", Value: "text/plain"},
		{Name: "content-TYPE", Value: "text/plain; charset=windows-1252"},
	}
	assert.Equal(t, "windows-1252", CharsetFromHeaders(headers))
	assert.Empty(t, CharsetFromHeaders(nil))
}

func TestFormatContentType(t *testing.T) {
	assert.Equal(t, "text/plain; charset=UTF-8", FormatContentType("text/plain", "UTF-8"))
	assert.Equal(t, "application/json", FormatContentType("application/json", ""))
}

func TestEncodeParameters(t *testing.T) {
	got := EncodeParameters(map[string]string{
		"q":     "rest client",
		"a&b":   "x=y",
		"empty": "",
	})
	assert.Equal(t, "a%26b=x%3Dy&empty=&q=rest+client", got)
	assert.Empty(t, EncodeParameters(nil))
}

func TestDecodeBody(t *testing.T) {
	t.Parallel()

	got, err := DecodeBody([]byte{'c', 'a', 'f', 0xe9}, "ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "café", got)

	got, err = DecodeBody([]byte("plain"), "")
	require.NoError(t, err)
	assert.Equal(t, "plain", got)

	got, err = DecodeBody([]byte("quoted"), ` "utf-8" `)
	require.NoError(t, err)
	assert.Equal(t, "quoted", got)

	_, err = DecodeBody([]byte("x"), "klingon-8")
	assert.ErrorIs(t, err, ErrUnknownCharset)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "abc", Preview("abc", 5))
	assert.Equal(t, "ab...(truncated)", Preview("abcdef", 2))
	assert.Equal(t, "abc", Preview("abc", 0))

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"café", 4, "caf...(truncated)"},
		{"café", 5, "café"},
		{"日本語", 4, "日...(truncated)"},
		{"日本語", 2, "...(truncated)"},
		{"a\U0001F600b", 4, "a...(truncated)"},
	}
	for _, tt := range tests {
		tt := tt
		got := Preview(tt.in, tt.max)
		assert.Equal(t, tt.want, got, "Preview(%q, %d)", tt.in, tt.max)
		assert.True(t, utf8.ValidString(got))
	}
}

func TestStackTrace(t *testing.T) {
	root := errors.New("disk full")
	err := fmt.Errorf("write entry: %w", root)
	err = fmt.Errorf("pack: %w", err)

	assert.Equal(t,
		"pack: write entry: disk full\n\tcaused by: write entry: disk full\n\tcaused by: disk full",
		StackTrace(err))
	assert.Empty(t, StackTrace(nil))
	assert.Equal(t, "plain", StackTrace(errors.New("plain")))
}
