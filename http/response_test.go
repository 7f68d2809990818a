package http

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
)

// roundTrip sends a response over one half of a pipe and parses it off the
// other half with the standard library's reader.
func roundTrip(t *testing.T, recv *Headers, build func(res *Response)) (*http.Response, []byte) {
	t.Helper()

	server, client := net.Pipe()
	res := NewResponse(server, recv)
	build(res)

	errCh := make(chan error, 1)
	go func() { errCh <- res.Send() }()

	resp, err := http.ReadResponse(bufio.NewReader(client), nil)
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	resp.Body.Close()
	client.Close()

	if err := <-errCh; err != nil {
		t.Fatalf("send: %v", err)
	}
	return resp, body
}

func TestSendStatusLine(t *testing.T) {
	resp, _ := roundTrip(t, NewHeaders(), func(res *Response) {
		res.WithStatus(StatusNotFound)
	})
	if resp.StatusCode != 404 {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	if resp.Proto != "HTTP/1.1" {
		t.Errorf("expected HTTP/1.1, got %s", resp.Proto)
	}
}

func TestSendDefaultHeaders(t *testing.T) {
	resp, _ := roundTrip(t, NewHeaders(), func(res *Response) {
		res.WithText("hi")
	})
	if resp.Header.Get("Date") == "" {
		t.Error("expected a Date header")
	}
	if got := resp.Header.Get("Server"); got != ServerName {
		t.Errorf("expected Server %q, got %q", ServerName, got)
	}
}

func TestSendHandlerHeadersWin(t *testing.T) {
	resp, _ := roundTrip(t, NewHeaders(), func(res *Response) {
		res.Headers.Set("Server", "custom")
		res.WithText("hi")
	})
	if got := resp.Header.Get("Server"); got != "custom" {
		t.Errorf("handler-set header must win, got %q", got)
	}
}

func TestSendContentLength(t *testing.T) {
	resp, body := roundTrip(t, NewHeaders(), func(res *Response) {
		res.Body = []byte("hello world")
	})
	if got := resp.Header.Get("Content-Length"); got != "11" {
		t.Errorf("expected Content-Length 11, got %q", got)
	}
	if string(body) != "hello world" {
		t.Errorf("expected body back unchanged, got %q", body)
	}
	if resp.Header.Get("Content-Encoding") != "" {
		t.Error("no negotiation without Accept-Encoding")
	}
	if _, ok := resp.Header["Content-Encoding"]; ok {
		t.Error("Content-Encoding must be absent entirely without Accept-Encoding")
	}
}

func TestNegotiateGzip(t *testing.T) {
	payload := strings.Repeat("compress me ", 1024)
	recv := NewHeaders()
	recv.Set("Accept-Encoding", "gzip, br")

	resp, body := roundTrip(t, recv, func(res *Response) {
		res.Body = []byte(payload)
	})

	if got := resp.Header.Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("expected gzip, got %q", got)
	}
	if resp.ContentLength >= int64(len(payload)) {
		t.Errorf("compressed response must be smaller, got %d", resp.ContentLength)
	}

	codec, _ := CodecByName("gzip")
	restored, err := codec.Decompress(body)
	if err != nil {
		t.Fatal(err)
	}
	if string(restored) != payload {
		t.Error("decompressed body does not match handler output")
	}
}

func TestNegotiateNeverInflates(t *testing.T) {
	recv := NewHeaders()
	recv.Set("Accept-Encoding", "gzip, deflate, zstd")

	resp, body := roundTrip(t, recv, func(res *Response) {
		res.Body = []byte("hi")
	})

	if got := resp.Header.Get("Content-Encoding"); got != "" {
		t.Errorf("tiny body must stay uncompressed, got %q", got)
	}
	if resp.ContentLength > 2 {
		t.Errorf("Content-Length must never exceed the original, got %d", resp.ContentLength)
	}
	if string(body) != "hi" {
		t.Errorf("expected body unchanged, got %q", body)
	}
}

func TestNegotiateUnknownCodecOnly(t *testing.T) {
	recv := NewHeaders()
	recv.Set("Accept-Encoding", "br")

	resp, body := roundTrip(t, recv, func(res *Response) {
		res.Body = []byte("hello")
	})

	// The header is set once negotiation ran, even when nothing applied.
	values, ok := resp.Header["Content-Encoding"]
	if !ok {
		t.Fatal("expected Content-Encoding to be present")
	}
	if len(values) != 1 || values[0] != "" {
		t.Errorf("expected an empty value, got %q", values)
	}
	if string(body) != "hello" {
		t.Errorf("expected body byte-identical, got %q", body)
	}
}

func TestSendStreamedBody(t *testing.T) {
	payload := bytes.Repeat([]byte("streamed response "), 128*1024)
	path := writeTempFile(t, payload)

	recv := NewHeaders()
	recv.Set("Accept-Encoding", "gzip")

	resp, body := roundTrip(t, recv, func(res *Response) {
		res.Stream = NewSender(path)
	})

	if _, ok := resp.Header["Content-Length"]; ok {
		t.Error("a streamed body has no Content-Length")
	}
	if got := resp.Header.Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("expected gzip for a streaming-capable codec, got %q", got)
	}

	codec, _ := CodecByName("gzip")
	restored, err := codec.Decompress(body)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(restored, payload) {
		t.Error("streamed body does not restore to the source file")
	}
}

func TestSendTwice(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	res := NewResponse(server, NewHeaders())
	go io.Copy(io.Discard, client)

	if err := res.Send(); err != nil {
		t.Fatal(err)
	}
	if err := res.Send(); !errors.Is(err, ErrResponseSent) {
		t.Errorf("expected ErrResponseSent, got %v", err)
	}
}

func TestWithJson(t *testing.T) {
	resp, body := roundTrip(t, NewHeaders(), func(res *Response) {
		res.WithJson(map[string]string{"location": "/login"})
	})
	if got := resp.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("expected json content type, got %q", got)
	}
	if string(body) != `{"location":"/login"}` {
		t.Errorf("unexpected json body %q", body)
	}
}
