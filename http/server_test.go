package http

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
)

func serveConn(t *testing.T, handler Handler, raw string) (*http.Response, error) {
	t.Helper()

	server, client := net.Pipe()
	srv := NewServer("test", handler, slog.New(slog.NewTextHandler(io.Discard, nil)))
	go srv.ServeConn(context.Background(), server)

	if _, err := client.Write([]byte(raw)); err != nil {
		t.Fatalf("writing request: %v", err)
	}
	return http.ReadResponse(bufio.NewReader(client), nil)
}

func TestServeConn(t *testing.T) {
	handler := func(req *Request, res *Response) {
		res.WithText("hello " + req.Path)
	}

	resp, err := serveConn(t, handler, "GET /world HTTP/1.1\r\n\r\n")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "hello /world" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestServeConnProtocolError(t *testing.T) {
	called := false
	handler := func(req *Request, res *Response) { called = true }

	_, err := serveConn(t, handler, "NOT A REQUEST\r\n\r\n")
	if err == nil {
		t.Fatal("expected the connection to drop without a response")
	}
	if called {
		t.Error("handler must not run for a broken request head")
	}
}

func TestServeConnPanicRecovery(t *testing.T) {
	handler := func(req *Request, res *Response) {
		res.Headers.Set("X-Partial", "1")
		panic("boom")
	}

	resp, err := serveConn(t, handler, "GET / HTTP/1.1\r\n\r\n")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 500 {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Partial") != "" {
		t.Error("headers set before the panic must be discarded")
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "something went wrong" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestListenAndServeStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	srv := NewServer("test", func(req *Request, res *Response) {}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
