package xmldoc

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/beevik/etree"

	"github.com/TanyaEf/rest-client/pkg/model"
)

// Version is the document format version written by this package.
const Version = "3.0"

// Errors returned when a document cannot be decoded.
var (
	ErrMalformedDocument = errors.New("malformed document")
	ErrUnexpectedRoot    = errors.New("unexpected root element")
	ErrVersionMismatch   = errors.New("unsupported document version")
)

// ErrUnencodable is returned by the writers for values a document cannot
// carry unchanged: a request without a method, or text that is not valid
// UTF-8 or contains characters XML 1.0 forbids.
var ErrUnencodable = errors.New("value cannot be encoded")

const (
	rootElement     = "rest-client"
	requestElement  = "request"
	responseElement = "response"
)

// supportedVersions lists the root versions accepted on read.
var supportedVersions = map[string]bool{
	"2.3": true,
	"3.0": true,
}

// WriteRequest writes req as an .rcq document.
func WriteRequest(w io.Writer, req *model.Request) error {
	if req == nil {
		return errors.New("xmldoc: nil request")
	}
	if err := checkRequest(req); err != nil {
		return err
	}

	doc, root := newDocument()
	el := root.CreateElement(requestElement)

	version := req.HTTPVersion
	if version == "" {
		version = model.DefaultHTTPVersion
	}
	el.CreateElement("http-version").SetText(version)
	if req.FollowRedirect {
		el.CreateElement("follow-redirect").SetText("true")
	}
	el.CreateElement("method").SetText(req.Method)
	el.CreateElement("URL").SetText(req.URL)

	if a := req.Auth; a != nil {
		auth := el.CreateElement("auth")
		if a.Preemptive {
			auth.CreateAttr("preemptive", "true")
		}
		for _, m := range a.Methods {
			auth.CreateElement("auth-method").SetText(m)
		}
		setOptional(auth, "host", a.Host)
		setOptional(auth, "realm", a.Realm)
		auth.CreateElement("username").SetText(a.Username)
		if a.Password != "" {
			auth.CreateElement("password").SetText(base64.StdEncoding.EncodeToString([]byte(a.Password)))
		}
	}

	writeHeaders(el, "headers", "header", req.Headers)
	writeHeaders(el, "cookies", "cookie", req.Cookies)

	if b := req.Body; b != nil {
		body := el.CreateElement("body")
		body.CreateAttr("content-type", b.ContentType)
		if b.Charset != "" {
			body.CreateAttr("charset", b.Charset)
		}
		body.SetText(base64.StdEncoding.EncodeToString(b.Data))
	}

	setOptional(el, "test-script", req.TestScript)

	return writeDocument(w, doc)
}

// ReadRequest decodes an .rcq document.
func ReadRequest(r io.Reader) (*model.Request, error) {
	el, err := readDocument(r, requestElement)
	if err != nil {
		return nil, err
	}

	req := &model.Request{
		HTTPVersion:    childText(el, "http-version"),
		Method:         childText(el, "method"),
		URL:            childText(el, "URL"),
		FollowRedirect: childText(el, "follow-redirect") == "true",
		TestScript:     childText(el, "test-script"),
		Headers:        readHeaders(el, "headers", "header"),
		Cookies:        readHeaders(el, "cookies", "cookie"),
	}
	if req.Method == "" {
		return nil, fmt.Errorf("%w: request has no method", ErrMalformedDocument)
	}

	if auth := el.SelectElement("auth"); auth != nil {
		a := &model.Auth{
			Preemptive: auth.SelectAttrValue("preemptive", "") == "true",
			Host:       childText(auth, "host"),
			Realm:      childText(auth, "realm"),
			Username:   childText(auth, "username"),
		}
		for _, m := range auth.SelectElements("auth-method") {
			a.Methods = append(a.Methods, m.Text())
		}
		if p := auth.SelectElement("password"); p != nil {
			pw, err := base64.StdEncoding.DecodeString(p.Text())
			if err != nil {
				return nil, fmt.Errorf("%w: password: %w", ErrMalformedDocument, err)
			}
			a.Password = string(pw)
		}
		req.Auth = a
	}

	if body := el.SelectElement("body"); body != nil {
		data, err := decodeBase64(body.Text())
		if err != nil {
			return nil, fmt.Errorf("%w: request body: %w", ErrMalformedDocument, err)
		}
		req.Body = &model.RequestBody{
			ContentType: body.SelectAttrValue("content-type", ""),
			Charset:     body.SelectAttrValue("charset", ""),
			Data:        data,
		}
	}

	return req, nil
}

// WriteResponse writes resp as an .rcs document.
func WriteResponse(w io.Writer, resp *model.Response) error {
	if resp == nil {
		return errors.New("xmldoc: nil response")
	}
	if err := checkResponse(resp); err != nil {
		return err
	}

	doc, root := newDocument()
	el := root.CreateElement(responseElement)

	el.CreateElement("execution-time").SetText(strconv.FormatInt(resp.ExecutionTime.Milliseconds(), 10))
	status := el.CreateElement("status")
	status.CreateAttr("code", strconv.Itoa(resp.StatusCode))
	status.SetText(resp.StatusLine)

	writeHeaders(el, "headers", "header", resp.Headers)

	if len(resp.Body) > 0 {
		el.CreateElement("body").SetText(base64.StdEncoding.EncodeToString(resp.Body))
	}

	if tr := resp.TestResult; tr != nil {
		t := el.CreateElement("test-result")
		t.CreateAttr("runs", strconv.Itoa(tr.Runs))
		t.CreateAttr("failures", strconv.Itoa(tr.Failures))
		t.CreateAttr("errors", strconv.Itoa(tr.Errors))
		t.SetText(tr.Message)
	}

	return writeDocument(w, doc)
}

// ReadResponse decodes an .rcs document.
func ReadResponse(r io.Reader) (*model.Response, error) {
	el, err := readDocument(r, responseElement)
	if err != nil {
		return nil, err
	}

	resp := &model.Response{
		Headers: readHeaders(el, "headers", "header"),
	}

	if ms := childText(el, "execution-time"); ms != "" {
		n, err := strconv.ParseInt(ms, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: execution-time: %w", ErrMalformedDocument, err)
		}
		resp.ExecutionTime = time.Duration(n) * time.Millisecond
	}

	status := el.SelectElement("status")
	if status == nil {
		return nil, fmt.Errorf("%w: response has no status", ErrMalformedDocument)
	}
	code, err := strconv.Atoi(status.SelectAttrValue("code", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: status code: %w", ErrMalformedDocument, err)
	}
	resp.StatusCode = code
	resp.StatusLine = status.Text()

	if body := el.SelectElement("body"); body != nil {
		data, err := decodeBase64(body.Text())
		if err != nil {
			return nil, fmt.Errorf("%w: response body: %w", ErrMalformedDocument, err)
		}
		resp.Body = data
	}

	if t := el.SelectElement("test-result"); t != nil {
		tr := &model.TestResult{Message: t.Text()}
		for attr, dst := range map[string]*int{"runs": &tr.Runs, "failures": &tr.Failures, "errors": &tr.Errors} {
			n, err := strconv.Atoi(t.SelectAttrValue(attr, "0"))
			if err != nil {
				return nil, fmt.Errorf("%w: test-result %s: %w", ErrMalformedDocument, attr, err)
			}
			*dst = n
		}
		resp.TestResult = tr
	}

	return resp, nil
}

func newDocument() (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(rootElement)
	root.CreateAttr("version", Version)
	return doc, root
}

func writeDocument(w io.Writer, doc *etree.Document) error {
	// Character references keep \r, \t and \n intact through parsing.
	doc.WriteSettings.CanonicalText = true
	doc.WriteSettings.CanonicalAttrVal = true

	indent := etree.NewIndentSettings()
	indent.Spaces = 2
	indent.PreserveLeafWhitespace = true
	doc.IndentWithSettings(indent)

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// readDocument parses r and returns the single child of the root named want.
func readDocument(r io.Reader, want string) (*etree.Element, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedDocument)
	}
	if root.Tag != rootElement {
		return nil, fmt.Errorf("%w: <%s>", ErrUnexpectedRoot, root.Tag)
	}
	if v := root.SelectAttrValue("version", ""); !supportedVersions[v] {
		return nil, fmt.Errorf("%w: %q", ErrVersionMismatch, v)
	}

	el := root.SelectElement(want)
	if el == nil {
		return nil, fmt.Errorf("%w: missing <%s>", ErrUnexpectedRoot, want)
	}
	return el, nil
}

func checkRequest(req *model.Request) error {
	if req.Method == "" {
		return fmt.Errorf("%w: request has no method", ErrUnencodable)
	}
	fields := []field{
		{"http-version", req.HTTPVersion},
		{"method", req.Method},
		{"URL", req.URL},
		{"test-script", req.TestScript},
	}
	fields = appendHeaders(fields, "header", req.Headers)
	fields = appendHeaders(fields, "cookie", req.Cookies)
	if a := req.Auth; a != nil {
		for _, m := range a.Methods {
			fields = append(fields, field{"auth-method", m})
		}
		fields = append(fields, field{"host", a.Host}, field{"realm", a.Realm}, field{"username", a.Username})
	}
	if b := req.Body; b != nil {
		fields = append(fields, field{"content-type", b.ContentType}, field{"charset", b.Charset})
	}
	return checkFields(fields)
}

func checkResponse(resp *model.Response) error {
	fields := []field{{"status", resp.StatusLine}}
	fields = appendHeaders(fields, "header", resp.Headers)
	if tr := resp.TestResult; tr != nil {
		fields = append(fields, field{"test-result", tr.Message})
	}
	return checkFields(fields)
}

type field struct {
	name  string
	value string
}

func appendHeaders(fields []field, item string, headers model.Headers) []field {
	for _, h := range headers {
		fields = append(fields, field{item + " key", h.Name}, field{item + " value", h.Value})
	}
	return fields
}

func checkFields(fields []field) error {
	for _, f := range fields {
		if !utf8.ValidString(f.value) {
			return fmt.Errorf("%w: %s is not valid UTF-8", ErrUnencodable, f.name)
		}
		for i, r := range f.value {
			if !isXMLChar(r) {
				return fmt.Errorf("%w: %s has character %U at offset %d", ErrUnencodable, f.name, r, i)
			}
		}
	}
	return nil
}

// isXMLChar reports whether r is in the XML 1.0 Char production.
func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

func writeHeaders(parent *etree.Element, group, item string, headers model.Headers) {
	if len(headers) == 0 {
		return
	}
	g := parent.CreateElement(group)
	for _, h := range headers {
		e := g.CreateElement(item)
		e.CreateAttr("key", h.Name)
		e.CreateAttr("value", h.Value)
	}
}

func readHeaders(parent *etree.Element, group, item string) model.Headers {
	g := parent.SelectElement(group)
	if g == nil {
		return nil
	}
	var out model.Headers
	for _, e := range g.SelectElements(item) {
		out.Add(e.SelectAttrValue("key", ""), e.SelectAttrValue("value", ""))
	}
	return out
}

func setOptional(parent *etree.Element, tag, text string) {
	if text != "" {
		parent.CreateElement(tag).SetText(text)
	}
}

func childText(parent *etree.Element, tag string) string {
	if c := parent.SelectElement(tag); c != nil {
		return c.Text()
	}
	return ""
}

// decodeBase64 returns nil for empty input so absent and empty bodies read
// back the same way.
func decodeBase64(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(s)
}

// Codec adapts the package functions to archive.DocumentCodec.
type Codec struct{}

// EncodeRequest implements archive.DocumentCodec.
func (Codec) EncodeRequest(w io.Writer, req *model.Request) error { return WriteRequest(w, req) }

// DecodeRequest implements archive.DocumentCodec.
func (Codec) DecodeRequest(r io.Reader) (*model.Request, error) { return ReadRequest(r) }

// EncodeResponse implements archive.DocumentCodec.
func (Codec) EncodeResponse(w io.Writer, resp *model.Response) error {
	return WriteResponse(w, resp)
}

// DecodeResponse implements archive.DocumentCodec.
func (Codec) DecodeResponse(r io.Reader) (*model.Response, error) { return ReadResponse(r) }

// ReadRequestFile reads an .rcq document from path.
func ReadRequestFile(path string) (*model.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadRequest(f)
}

// ReadResponseFile reads an .rcs document from path.
func ReadResponseFile(path string) (*model.Response, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadResponse(f)
}

// WriteRequestFile writes req to path, replacing any existing file.
func WriteRequestFile(path string, req *model.Request) error {
	return writeFile(path, func(w io.Writer) error { return WriteRequest(w, req) })
}

// WriteResponseFile writes resp to path, replacing any existing file.
func WriteResponseFile(path string, resp *model.Response) error {
	return writeFile(path, func(w io.Writer) error { return WriteResponse(w, resp) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
