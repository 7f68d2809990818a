package http

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Receiver streams a request body of known length off the connection in
// bounded chunks, so the peak memory use stays capped no matter how large
// the upload is. It is pull-based: no byte is read before ReceiveInto.
type Receiver struct {
	conn   io.Reader
	length int64
	codecs []StreamCodec
	used   bool
}

// NewReceiver binds a receiver to the connection's read side and the
// declared body length.
func NewReceiver(conn io.Reader, length int64) *Receiver {
	return &Receiver{conn: conn, length: length}
}

// Len is the declared body length on the wire, before any decompression.
func (rec *Receiver) Len() int64 {
	return rec.length
}

// Decompress attaches a streaming decompressor. Codecs are applied in the
// order attached; decoder state persists across chunks. Must be called
// before ReceiveInto.
func (rec *Receiver) Decompress(codec StreamCodec) {
	rec.codecs = append(rec.codecs, codec)
}

// ReceiveInto drains the body into w, decompressing through any attached
// codecs. A connection that closes before the declared length has arrived
// fails the transfer; the body is never silently truncated.
func (rec *Receiver) ReceiveInto(w io.Writer) error {
	if rec.used {
		return errors.New("http: request body already consumed")
	}
	rec.used = true

	raw := &countingReader{r: io.LimitReader(rec.conn, rec.length)}

	var src io.Reader = raw
	for _, codec := range rec.codecs {
		wrapped, err := codec.Decompressor(src)
		if err != nil {
			return fmt.Errorf("http: %s decompressor: %w", codec.Name(), err)
		}
		src = wrapped
	}

	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(w, src, buf); err != nil {
		return fmt.Errorf("http: receive body: %w", err)
	}
	if c, ok := src.(io.Closer); ok {
		c.Close()
	}
	if raw.n != rec.length {
		return fmt.Errorf("%w: got %d of %d bytes", ErrShortBody, raw.n, rec.length)
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Sender streams a response body from a file in bounded chunks, compressing
// through any attached codecs as it writes.
type Sender struct {
	path   string
	codecs []StreamCodec
}

func NewSender(path string) *Sender {
	return &Sender{path: path}
}

// Compress attaches a streaming compressor. Codecs are applied in the order
// attached: the first sees the raw file bytes, each next one the previous
// codec's output.
func (snd *Sender) Compress(codec StreamCodec) {
	snd.codecs = append(snd.codecs, codec)
}

// SendTo reads the source until exhaustion, writing each produced chunk to
// w, and finally flushes every codec's trailer. An error from w (the peer
// went away) fails the transfer.
func (snd *Sender) SendTo(w io.Writer) error {
	f, err := os.Open(snd.path)
	if err != nil {
		return fmt.Errorf("http: send body: %w", err)
	}
	defer f.Close()

	// Wrap back to front so data flows first codec -> last codec -> w.
	dst := w
	closers := make([]io.WriteCloser, 0, len(snd.codecs))
	for i := len(snd.codecs) - 1; i >= 0; i-- {
		cw := snd.codecs[i].Compressor(dst)
		closers = append(closers, cw)
		dst = cw
	}

	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(dst, f, buf); err != nil {
		return fmt.Errorf("http: send body: %w", err)
	}

	// Close innermost first so each trailer reaches the next layer down.
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			return fmt.Errorf("http: send body: %w", err)
		}
	}
	return nil
}
