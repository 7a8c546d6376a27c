// Package httputil holds small, stateless helpers for HTTP status lines,
// content types, form parameters and bodies.
package httputil

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/TanyaEf/rest-client/pkg/model"
)

// MaxPreviewSize is the default body preview size.
const MaxPreviewSize = 10 * 1024

var (
	statusLinePattern = regexp.MustCompile(`^\S+\s([0-9]{3})\s.*$`)
	charsetPattern    = regexp.MustCompile(`charset=([^;]*)`)
)

// StatusCodeFromStatusLine returns the code in a line such as
// "HTTP/1.1 404 Not Found", or -1 when the line is not a status line.
// A reason phrase is required, as in "HTTP/1.1 200 " at minimum.
func StatusCodeFromStatusLine(line string) int {
	m := statusLinePattern.FindStringSubmatch(line)
	if m == nil {
		return -1
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return -1
	}
	return code
}

// CharsetFromContentType returns the charset parameter of a Content-Type
// value, or "" if there is none. The value is returned as written.
func CharsetFromContentType(contentType string) string {
	m := charsetPattern.FindStringSubmatch(contentType)
	if m == nil {
		return ""
	}
	return m[1]
}

// CharsetFromHeaders looks up Content-Type case-insensitively and returns
// its charset.
func CharsetFromHeaders(headers model.Headers) string {
	return CharsetFromContentType(headers.Get("Content-Type"))
}

// FormatContentType joins a media type and an optional charset into a
// Content-Type value.
func FormatContentType(contentType, charset string) string {
	if charset == "" {
		return contentType
	}
	return contentType + "; charset=" + charset
}

// EncodeParameters form-encodes params in key order.
func EncodeParameters(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(params[k]))
	}
	return sb.String()
}

// ErrUnknownCharset is returned by DecodeBody for charsets it cannot map.
var ErrUnknownCharset = errors.New("unknown charset")

// DecodeBody converts body from charset to a UTF-8 string. An empty charset
// means the body is already UTF-8.
func DecodeBody(body []byte, charset string) (string, error) {
	charset = strings.Trim(strings.TrimSpace(charset), `"`)
	if charset == "" {
		return string(body), nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownCharset, charset)
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s body: %w", charset, err)
	}
	return string(out), nil
}

// Preview returns at most maxSize bytes of s, marking truncation. The cut
// never splits a UTF-8 sequence. maxSize <= 0 means MaxPreviewSize.
func Preview(s string, maxSize int) string {
	if maxSize <= 0 {
		maxSize = MaxPreviewSize
	}
	if len(s) <= maxSize {
		return s
	}
	n := maxSize
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "...(truncated)"
}

// StackTrace renders err followed by each error it wraps, one per line.
func StackTrace(err error) string {
	if err == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(err.Error())
	for _, e := range unwrapAll(err) {
		sb.WriteString("\n\tcaused by: ")
		sb.WriteString(e.Error())
	}
	return sb.String()
}

func unwrapAll(err error) []error {
	var out []error
	var walk func(error)
	walk = func(e error) {
		var next []error
		switch u := e.(type) {
		case interface{ Unwrap() error }:
			if w := u.Unwrap(); w != nil {
				next = []error{w}
			}
		case interface{ Unwrap() []error }:
			next = u.Unwrap()
		}
		for _, n := range next {
			out = append(out, n)
			walk(n)
		}
	}
	walk(err)
	return out
}
