package http

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Codec compresses and decompresses whole in-memory bodies. The Name is the
// token used in Accept-Encoding and Content-Encoding headers.
type Codec interface {
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// StreamCodec is implemented by codecs that can additionally transform a
// body in bounded chunks. The returned wrappers carry codec state across
// chunks; each wrapper belongs to exactly one exchange and is never reused.
// A Codec without a streaming variant still handles in-memory bodies but is
// skipped for streamed ones.
type StreamCodec interface {
	Codec

	// Compressor wraps w so that writes pass through the codec. Closing
	// flushes any trailer into w without closing w itself.
	Compressor(w io.Writer) io.WriteCloser

	// Decompressor wraps r so that reads yield decoded bytes.
	Decompressor(r io.Reader) (io.Reader, error)
}

// encodings is the fixed negotiation order. Built once at process start and
// read-only afterwards, so connection goroutines share it without locking.
var encodings = []Codec{gzipCodec{}, deflateCodec{}, zstdCodec{}}

// CodecByName finds a registered codec by its wire name.
func CodecByName(name string) (Codec, bool) {
	for _, codec := range encodings {
		if codec.Name() == name {
			return codec, true
		}
	}
	return nil, false
}

type gzipCodec struct{}

func (gzipCodec) Name() string { return "gzip" }

func (gzipCodec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gzipCodec) Decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func (gzipCodec) Compressor(w io.Writer) io.WriteCloser {
	return gzip.NewWriter(w)
}

func (gzipCodec) Decompressor(r io.Reader) (io.Reader, error) {
	return gzip.NewReader(r)
}

// deflateCodec is zlib-wrapped deflate, matching what browsers actually
// send for "deflate".
type deflateCodec struct{}

func (deflateCodec) Name() string { return "deflate" }

func (deflateCodec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (deflateCodec) Decompress(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func (deflateCodec) Compressor(w io.Writer) io.WriteCloser {
	return zlib.NewWriter(w)
}

func (deflateCodec) Decompressor(r io.Reader) (io.Reader, error) {
	return zlib.NewReader(r)
}

type zstdCodec struct{}

func (zstdCodec) Name() string { return "zstd" }

func (zstdCodec) Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func (zstdCodec) Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

func (zstdCodec) Compressor(w io.Writer) io.WriteCloser {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		// Only possible with invalid encoder options.
		panic(err)
	}
	return enc
}

func (zstdCodec) Decompressor(r io.Reader) (io.Reader, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}
