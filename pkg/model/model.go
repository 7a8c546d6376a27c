// Package model provides the request and response types a REST client
// saves, replays and archives.
package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrInvalidRequest is returned by Request.Validate.
var ErrInvalidRequest = errors.New("invalid request")

// Auth methods.
const (
	AuthBasic  = "BASIC"
	AuthDigest = "DIGEST"
)

// DefaultHTTPVersion is used when a request does not name one.
const DefaultHTTPVersion = "1.1"

// Header is a single name/value pair. Order and duplicates are preserved.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Headers is an ordered header list.
type Headers []Header

// Get returns the first value for name, matched case-insensitively.
func (h Headers) Get(name string) string {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return hdr.Value
		}
	}
	return ""
}

// Values returns every value for name, matched case-insensitively.
func (h Headers) Values(name string) []string {
	var out []string
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			out = append(out, hdr.Value)
		}
	}
	return out
}

// Add appends a header.
func (h *Headers) Add(name, value string) {
	*h = append(*h, Header{Name: name, Value: value})
}

// RequestBody is the entity sent with a request.
type RequestBody struct {
	ContentType string `json:"contentType"`
	Charset     string `json:"charset,omitempty"`
	Data        []byte `json:"data,omitempty"`
}

// Auth holds credentials for HTTP authentication.
type Auth struct {
	Methods    []string `json:"methods"`
	Host       string   `json:"host,omitempty"`
	Realm      string   `json:"realm,omitempty"`
	Username   string   `json:"username"`
	Password   string   `json:"password,omitempty"`
	Preemptive bool     `json:"preemptive,omitempty"`
}

// Request is a saved HTTP request.
type Request struct {
	Method         string       `json:"method"`
	URL            string       `json:"url"`
	HTTPVersion    string       `json:"httpVersion,omitempty"`
	Headers        Headers      `json:"headers,omitempty"`
	Cookies        Headers      `json:"cookies,omitempty"`
	Body           *RequestBody `json:"body,omitempty"`
	Auth           *Auth        `json:"auth,omitempty"`
	FollowRedirect bool         `json:"followRedirect,omitempty"`
	TestScript     string       `json:"testScript,omitempty"`
}

// Validate checks that the request names a method and an absolute http(s) URL.
func (r *Request) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Method) == "" {
		return fmt.Errorf("%w: method is required", ErrInvalidRequest)
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: url must be absolute http or https: %q", ErrInvalidRequest, r.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: url has no host: %q", ErrInvalidRequest, r.URL)
	}
	for _, m := range authMethods(r.Auth) {
		if m != AuthBasic && m != AuthDigest {
			return fmt.Errorf("%w: unknown auth method %q", ErrInvalidRequest, m)
		}
	}
	return nil
}

func authMethods(a *Auth) []string {
	if a == nil {
		return nil
	}
	return a.Methods
}

// TestResult summarizes a test script run against a response.
type TestResult struct {
	Runs     int    `json:"runs"`
	Failures int    `json:"failures"`
	Errors   int    `json:"errors"`
	Message  string `json:"message,omitempty"`
}

// Response is a captured HTTP response.
type Response struct {
	StatusCode    int           `json:"statusCode"`
	StatusLine    string        `json:"statusLine"`
	Headers       Headers       `json:"headers,omitempty"`
	Body          []byte        `json:"body,omitempty"`
	ExecutionTime time.Duration `json:"executionTime"`
	TestResult    *TestResult   `json:"testResult,omitempty"`
}

// ReqRes pairs a request with the response it produced.
type ReqRes struct {
	Request  *Request  `json:"request"`
	Response *Response `json:"response"`
}
