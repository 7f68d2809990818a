package http

import "time"

const (
	// Version is the only protocol version this server speaks.
	Version = "HTTP/1.1"

	// ServerName is reported in the default Server header.
	ServerName = "lockbox"

	// BufferThreshold is the declared Content-Length at or above which a
	// request body is streamed instead of buffered in memory.
	BufferThreshold = 1 << 20

	// ChunkSize bounds how much body data is in flight at once while
	// streaming, regardless of total body size.
	ChunkSize = 64 * 1024

	DefaultReadBufferSize  = 4096
	DefaultWriteBufferSize = 4096

	// MaxLineBytes caps a single status or header line.
	MaxLineBytes = 8 << 10

	// DefaultTimeout covers a whole exchange. The deadline is the only way
	// a stalled peer gets unblocked.
	DefaultTimeout = 5 * time.Minute
)

// TimeFormat is the layout for the Date header.
const TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"
