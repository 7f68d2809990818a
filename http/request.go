package http

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

// Request is one parsed HTTP request. It is immutable once Parse returns:
// either Body holds the whole payload, or Stream yields it in bounded
// chunks, or both are nil.
type Request struct {
	Method  Method
	Path    string
	Headers *Headers

	// Body is set when the declared length is below BufferThreshold.
	Body []byte

	// Stream is set for larger bodies. It must be pulled by whoever wants
	// the payload; left unread, the body dies with the connection.
	Stream *Receiver

	// Remote is the peer's address, without the port.
	Remote string

	ctx context.Context
}

// Context returns the request's context, Background when unset.
func (req *Request) Context() context.Context {
	if req.ctx == nil {
		return context.Background()
	}
	return req.ctx
}

// WithContext attaches ctx to the request.
func (req *Request) WithContext(ctx context.Context) {
	req.ctx = ctx
}

// Parse reads one request off br: status line, headers, then body framing.
// Reading the head is strictly synchronous; it blocks until the peer has
// sent it. Any protocol violation aborts with a wrapped ErrProtocol and
// leaves no partially usable request behind.
func (req *Request) Parse(br *bufio.Reader) error {
	if err := req.parseStatus(br); err != nil {
		return err
	}
	if err := req.parseHeaders(br); err != nil {
		return err
	}
	if err := req.parseBody(br); err != nil {
		return err
	}
	return req.decompressBody()
}

// readLine accumulates raw bytes up to a line feed and strips the trailing
// carriage return and surrounding whitespace.
func readLine(br *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		b, err := br.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\n' {
			break
		}
		sb.WriteByte(b)
		if sb.Len() > MaxLineBytes {
			return "", fmt.Errorf("%w: line exceeds %d bytes", ErrProtocol, MaxLineBytes)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func (req *Request) parseStatus(br *bufio.Reader) error {
	line, err := readLine(br)
	if err != nil {
		return err
	}

	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return fmt.Errorf("%w: request line %q needs three tokens", ErrProtocol, line)
	}
	if !strings.EqualFold(parts[2], Version) {
		return fmt.Errorf("%w: unsupported version %q", ErrProtocol, parts[2])
	}

	method, err := ParseMethod(parts[0])
	if err != nil {
		return err
	}
	req.Method = method

	// Only the path matters; the query string is dropped.
	target, _, _ := strings.Cut(parts[1], "?")
	if decoded, err := url.PathUnescape(target); err == nil {
		target = decoded
	}
	req.Path = target
	return nil
}

func (req *Request) parseHeaders(br *bufio.Reader) error {
	req.Headers = NewHeaders()
	for {
		line, err := readLine(br)
		if err != nil {
			return err
		}
		if line == "" {
			return nil
		}

		// A line without ": " is kept with an empty value instead of
		// failing the exchange.
		name, value, _ := strings.Cut(line, ": ")
		req.Headers.Set(name, value)
	}
}

func (req *Request) parseBody(br *bufio.Reader) error {
	raw, ok := req.Headers.Lookup("Content-Length")
	if !ok {
		return nil
	}

	length, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || length < 0 {
		return fmt.Errorf("%w: Content-Length %q is not a number", ErrProtocol, raw)
	}
	if length == 0 {
		return nil
	}

	if length >= BufferThreshold {
		// Too large to buffer. Consumption is deferred to whoever reads
		// the request later; nothing is pulled off the socket here.
		req.Stream = NewReceiver(br, length)
		return nil
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(br, body); err != nil {
		return fmt.Errorf("%w: got fewer than %d body bytes", ErrShortBody, length)
	}
	req.Body = body
	return nil
}

// decompressBody applies the request's Content-Encoding before the body is
// handed to handlers. Codec names are applied in listed order; names this
// server does not know are skipped rather than rejected.
func (req *Request) decompressBody() error {
	if req.Body == nil && req.Stream == nil {
		return nil
	}
	value, ok := req.Headers.Lookup("Content-Encoding")
	if !ok {
		return nil
	}

	for _, name := range strings.Split(value, ", ") {
		codec, ok := CodecByName(name)
		if !ok {
			continue
		}

		if req.Stream != nil {
			// Streamed bodies need a streaming decoder; codecs without
			// one are skipped like unknown names.
			if sc, ok := codec.(StreamCodec); ok {
				req.Stream.Decompress(sc)
			}
			continue
		}

		body, err := codec.Decompress(req.Body)
		if err != nil {
			return fmt.Errorf("http: %s request body: %w", codec.Name(), err)
		}
		req.Body = body
	}
	return nil
}
