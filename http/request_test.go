package http

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func parseString(t *testing.T, raw string) (*Request, error) {
	t.Helper()
	var req Request
	err := req.Parse(bufio.NewReader(strings.NewReader(raw)))
	return &req, err
}

func TestParseRequestLine(t *testing.T) {
	req, err := parseString(t, "GET /a/v1/user?x=1 HTTP/1.1\r\n\r\n")
	if err != nil {
		t.Fatal(err)
	}
	if req.Method != MethodGet {
		t.Errorf("expected GET, got %s", req.Method)
	}
	if req.Path != "/a/v1/user" {
		t.Errorf("expected query-stripped path, got %q", req.Path)
	}
}

func TestParsePercentDecodedPath(t *testing.T) {
	req, err := parseString(t, "GET /files/my%20file.txt HTTP/1.1\r\n\r\n")
	if err != nil {
		t.Fatal(err)
	}
	if req.Path != "/files/my file.txt" {
		t.Errorf("expected decoded path, got %q", req.Path)
	}
}

func TestParseVersionCaseInsensitive(t *testing.T) {
	if _, err := parseString(t, "GET / http/1.1\r\n\r\n"); err != nil {
		t.Errorf("version match should ignore case: %v", err)
	}
}

func TestParseProtocolErrors(t *testing.T) {
	for _, raw := range []string{
		"GET HTTP/1.1\r\n\r\n",       // two tokens
		"GET / HTTP/2.0\r\n\r\n",     // unsupported version
		"FROB / HTTP/1.1\r\n\r\n",    // unknown verb
		"GET / HTTP/1.1 x\r\n\r\n",   // trailing junk breaks the version
	} {
		req, err := parseString(t, raw)
		if !errors.Is(err, ErrProtocol) {
			t.Errorf("%q: expected ErrProtocol, got %v", raw, err)
		}
		if req.Headers != nil || req.Body != nil || req.Stream != nil {
			t.Errorf("%q: no partially constructed request expected", raw)
		}
	}
}

func TestParseHeaders(t *testing.T) {
	req, err := parseString(t,
		"GET / HTTP/1.1\r\n"+
			"content-type: text/css\r\n"+
			"Content-Type: text/html\r\n"+
			"Upgrade-Insecure-Requests\r\n"+
			"\r\n")
	if err != nil {
		t.Fatal(err)
	}

	if got := req.Headers.Get("CONTENT-TYPE"); got != "text/html" {
		t.Errorf("expected last write to win, got %q", got)
	}

	// A line without ": " is tolerated and stored with an empty value.
	value, ok := req.Headers.Lookup("Upgrade-Insecure-Requests")
	if !ok || value != "" {
		t.Errorf("expected empty-value header, got %q (present=%v)", value, ok)
	}
}

func TestParseBodyInMemory(t *testing.T) {
	req, err := parseString(t, "POST /upload HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello")
	if err != nil {
		t.Fatal(err)
	}
	if string(req.Body) != "hello" {
		t.Errorf("expected body hello, got %q", req.Body)
	}
	if req.Stream != nil {
		t.Error("small body must not be streamed")
	}
}

func TestParseBodyZeroLength(t *testing.T) {
	req, err := parseString(t, "POST / HTTP/1.1\r\nContent-Length: 0\r\n\r\n")
	if err != nil {
		t.Fatal(err)
	}
	if req.Body != nil || req.Stream != nil {
		t.Error("zero-length body must stay absent")
	}
}

func TestParseContentLengthNotNumeric(t *testing.T) {
	_, err := parseString(t, "POST / HTTP/1.1\r\nContent-Length: five\r\n\r\n")
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("expected ErrProtocol, got %v", err)
	}
}

func TestParseBodyShortRead(t *testing.T) {
	_, err := parseString(t, "POST / HTTP/1.1\r\nContent-Length: 5\r\n\r\nhel")
	if !errors.Is(err, ErrShortBody) {
		t.Errorf("expected ErrShortBody, got %v", err)
	}
}

func TestParseBodyStreamed(t *testing.T) {
	payload := bytes.Repeat([]byte("streamed body "), BufferThreshold/14+1)
	raw := fmt.Sprintf("POST /upload HTTP/1.1\r\nContent-Length: %d\r\n\r\n%s",
		len(payload), payload)

	br := bufio.NewReader(strings.NewReader(raw))
	var req Request
	if err := req.Parse(br); err != nil {
		t.Fatal(err)
	}

	if req.Body != nil {
		t.Error("large body must not be buffered")
	}
	if req.Stream == nil {
		t.Fatal("expected a streaming body")
	}
	if req.Stream.Len() != int64(len(payload)) {
		t.Errorf("expected declared length %d, got %d", len(payload), req.Stream.Len())
	}

	var sink bytes.Buffer
	if err := req.Stream.ReceiveInto(&sink); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(sink.Bytes(), payload) {
		t.Error("streamed body does not match what was sent")
	}
}

func TestParseStreamedBodyIsLazy(t *testing.T) {
	// Only the head is available; parsing must still succeed because a
	// streamed body is pulled later, not during parsing.
	raw := fmt.Sprintf("POST /upload HTTP/1.1\r\nContent-Length: %d\r\n\r\n", BufferThreshold)
	req, err := parseString(t, raw)
	if err != nil {
		t.Fatal(err)
	}
	if req.Stream == nil {
		t.Fatal("expected a streaming body")
	}
}

func TestParseDecompressesBody(t *testing.T) {
	codec, _ := CodecByName("gzip")
	compressed, err := codec.Compress([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}

	raw := fmt.Sprintf(
		"POST / HTTP/1.1\r\nContent-Encoding: gzip\r\nContent-Length: %d\r\n\r\n%s",
		len(compressed), compressed)
	req, err := parseString(t, raw)
	if err != nil {
		t.Fatal(err)
	}
	if string(req.Body) != "hello" {
		t.Errorf("expected decompressed body, got %q", req.Body)
	}
}

func TestParseSkipsUnknownEncoding(t *testing.T) {
	req, err := parseString(t,
		"POST / HTTP/1.1\r\nContent-Encoding: br\r\nContent-Length: 5\r\n\r\nhello")
	if err != nil {
		t.Fatal(err)
	}
	if string(req.Body) != "hello" {
		t.Errorf("unknown codec names must be skipped, got %q", req.Body)
	}
}

func BenchmarkRequestParse(b *testing.B) {
	raw := []byte("GET /test HTTP/1.1\r\nAccept: text/css\r\nConnection: close\r\nContent-Length: 0\r\n\r\n")
	reader := bytes.NewReader(raw)
	br := bufio.NewReader(reader)

	for i := 0; i < b.N; i++ {
		reader.Reset(raw)
		br.Reset(reader)

		var req Request
		if err := req.Parse(br); err != nil {
			b.Error(err)
		}
	}
}
