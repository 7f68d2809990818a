package http

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Response is bound to the open socket and the request's received headers
// when the connection is accepted, mutated by handlers, and sent exactly
// once. Sending closes the connection; the response must not be touched
// afterwards.
type Response struct {
	Status  uint16
	Message string
	Headers *Headers

	// Body is an in-memory payload, Stream a file-backed one. Handlers set
	// at most one of them.
	Body   []byte
	Stream *Sender

	conn        net.Conn
	recvHeaders *Headers
	sent        bool
}

// NewResponse binds a fresh 200 response to conn. recvHeaders are the
// request's headers, needed later for compression negotiation.
func NewResponse(conn net.Conn, recvHeaders *Headers) *Response {
	return &Response{
		Status:      StatusOK,
		Message:     StatusText(StatusOK),
		Headers:     NewHeaders(),
		conn:        conn,
		recvHeaders: recvHeaders,
	}
}

func (res *Response) WithStatus(status uint16) *Response {
	res.Status = status
	res.Message = StatusText(status)
	return res
}

func (res *Response) WithText(payload string) *Response {
	res.Headers.Set("Content-Type", "text/plain")
	res.Body = []byte(payload)
	return res
}

func (res *Response) WithJson(payload any) *Response {
	data, err := json.Marshal(payload)
	if err != nil {
		return res.WithStatus(StatusInternalServerError)
	}
	res.Headers.Set("Content-Type", "application/json")
	res.Body = data
	return res
}

// WithFile streams the file at path as the body, with a guessed mime type.
func (res *Response) WithFile(path string) *Response {
	res.Headers.Set("Content-Type", GetMimeType(path))
	res.Stream = NewSender(path)
	return res
}

func (res *Response) SetCookie(cookie *Cookie) {
	res.Headers.Set("Set-Cookie", cookie.String())
}

// Send writes the response to the socket: compression negotiation, status
// line, headers, body, in that order, then closes the connection. Each step
// is irrevocable; the connection never carries a second exchange.
func (res *Response) Send() error {
	if res.sent {
		return ErrResponseSent
	}
	res.sent = true
	defer res.conn.Close()

	res.negotiate()

	if res.Body != nil {
		res.Headers.Set("Content-Length", strconv.Itoa(len(res.Body)))
	}
	// A streamed body has no predetermined length; Content-Length is
	// omitted and the close delimits it.

	bw := bufio.NewWriterSize(res.conn, DefaultWriteBufferSize)
	if err := res.sendStatus(bw); err != nil {
		return err
	}
	if err := res.sendHeaders(bw); err != nil {
		return err
	}
	if err := res.sendBody(bw); err != nil {
		return err
	}
	return bw.Flush()
}

// negotiate matches the registry against the request's Accept-Encoding.
// Streamed bodies get every matching streaming codec attached, since their
// compressed size cannot be measured up front. In-memory bodies keep a
// compressed form only when it is strictly smaller, so a response never
// inflates. Once negotiation runs, Content-Encoding is always set, possibly
// to the empty string.
func (res *Response) negotiate() {
	if res.Body == nil && res.Stream == nil {
		return
	}
	if res.recvHeaders == nil {
		return
	}
	accept, ok := res.recvHeaders.Lookup("Accept-Encoding")
	if !ok {
		return
	}

	used := make([]string, 0, len(encodings))
	for _, codec := range encodings {
		if !strings.Contains(accept, codec.Name()) {
			continue
		}

		if res.Stream != nil {
			if sc, ok := codec.(StreamCodec); ok {
				res.Stream.Compress(sc)
				used = append(used, codec.Name())
			}
			continue
		}

		compressed, err := codec.Compress(res.Body)
		if err != nil || len(compressed) >= len(res.Body) {
			continue
		}
		res.Body = compressed
		used = append(used, codec.Name())
	}

	res.Headers.Set("Content-Encoding", strings.Join(used, ", "))
}

func sendLine(bw *bufio.Writer, line string) error {
	if _, err := bw.WriteString(line); err != nil {
		return err
	}
	_, err := bw.WriteString("\r\n")
	return err
}

func (res *Response) sendStatus(bw *bufio.Writer) error {
	return sendLine(bw, fmt.Sprintf("%s %d %s", Version, res.Status, res.Message))
}

func (res *Response) sendHeaders(bw *bufio.Writer) error {
	headers := defaultHeaders()
	headers.Merge(res.Headers)

	var err error
	headers.Each(func(name, value string) {
		if err == nil {
			err = sendLine(bw, name+": "+value)
		}
	})
	if err != nil {
		return err
	}
	return sendLine(bw, "")
}

func (res *Response) sendBody(bw *bufio.Writer) error {
	switch {
	case res.Stream != nil:
		return res.Stream.SendTo(bw)
	case res.Body != nil:
		_, err := bw.Write(res.Body)
		return err
	}
	return nil
}

// defaultHeaders are merged under handler-set headers, which win on
// collision.
func defaultHeaders() *Headers {
	h := NewHeaders()
	h.Set("Date", time.Now().UTC().Format(TimeFormat))
	h.Set("Server", ServerName)
	return h
}
