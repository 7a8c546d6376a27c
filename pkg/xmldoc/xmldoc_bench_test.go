package xmldoc

import (
	"bytes"
	"io"
	"testing"
)

func BenchmarkXMLWriteResponse(b *testing.B) {
	resp := sampleResponse()
	resp.Body = bytes.Repeat([]byte("payload "), 8<<10)

	b.SetBytes(int64(len(resp.Body)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := WriteResponse(io.Discard, resp); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkXMLReadResponse(b *testing.B) {
	resp := sampleResponse()
	resp.Body = bytes.Repeat([]byte("payload "), 8<<10)

	var buf bytes.Buffer
	if err := WriteResponse(&buf, resp); err != nil {
		b.Fatal(err)
	}
	doc := buf.Bytes()

	b.SetBytes(int64(len(resp.Body)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ReadResponse(bytes.NewReader(doc)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkXMLRequestRoundTrip(b *testing.B) {
	req := sampleRequest()
	var buf bytes.Buffer

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := WriteRequest(&buf, req); err != nil {
			b.Fatal(err)
		}
		if _, err := ReadRequest(&buf); err != nil {
			b.Fatal(err)
		}
	}
}
