package http

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/lockboxhq/lockbox/http"

// Handler fills in the response for a parsed request. It must not write to
// the connection itself; the server serializes the response after the
// handler returns.
type Handler func(req *Request, res *Response)

type Server struct {
	Name    string
	Handler Handler
	Logger  *slog.Logger

	// Timeout covers a whole exchange. The connection deadline is the only
	// mechanism that unblocks a stalled peer.
	Timeout time.Duration

	tracer    trace.Tracer
	exchanges metric.Int64Counter
	duration  metric.Float64Histogram
}

func NewServer(name string, handler Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	meter := otel.Meter(instrumentationName)
	exchanges, err := meter.Int64Counter("http.server.exchanges",
		metric.WithDescription("Finished exchanges by outcome"))
	if err != nil {
		panic(err)
	}
	duration, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("Exchange duration"),
		metric.WithUnit("s"))
	if err != nil {
		panic(err)
	}

	return &Server{
		Name:      name,
		Handler:   handler,
		Logger:    logger,
		Timeout:   DefaultTimeout,
		tracer:    otel.Tracer(instrumentationName),
		exchanges: exchanges,
		duration:  duration,
	}
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return ctx.Err()
			}
			s.Logger.Error("accepting connection failed", "error", err)
			continue
		}

		go s.ServeConn(ctx, conn)
	}
}

// ServeConn runs one exchange: parse, handle, send, close. The socket
// belongs to this goroutine for the whole exchange and is closed exactly
// once on every exit path. There is no connection reuse.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) {
	start := time.Now()
	if s.Timeout > 0 {
		conn.SetDeadline(start.Add(s.Timeout))
	}

	ctx, span := s.tracer.Start(ctx, "http.exchange")
	defer span.End()

	br := bufio.NewReaderSize(conn, DefaultReadBufferSize)

	var req Request
	if err := req.Parse(br); err != nil {
		// A broken request head gets no response; drop the connection.
		conn.Close()
		if !errors.Is(err, io.EOF) {
			s.Logger.Warn("dropping connection",
				"error", err, "remote", conn.RemoteAddr().String())
		}
		s.exchanges.Add(ctx, 1, metric.WithAttributes(
			attribute.String("outcome", "protocol_error")))
		return
	}
	req.WithContext(ctx)
	if host, _, err := net.SplitHostPort(conn.RemoteAddr().String()); err == nil {
		req.Remote = host
	}

	res := NewResponse(conn, req.Headers)
	s.handle(&req, res)

	if err := res.Send(); err != nil {
		s.Logger.Warn("sending response failed",
			"error", err, "method", req.Method, "path", req.Path)
	}

	span.SetAttributes(
		attribute.String("http.request.method", string(req.Method)),
		attribute.String("url.path", req.Path),
		attribute.Int("http.response.status_code", int(res.Status)),
	)
	s.exchanges.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("status", int(res.Status))))
	s.duration.Record(ctx, time.Since(start).Seconds())
}

// handle runs the handler with panic isolation; a panicking handler yields
// a plain 500 instead of a dead socket.
func (s *Server) handle(req *Request, res *Response) {
	defer func() {
		if v := recover(); v != nil {
			s.Logger.Error("handler panicked",
				"panic", v, "method", req.Method, "path", req.Path)
			res.Headers = NewHeaders()
			res.Body = nil
			res.Stream = nil
			res.WithStatus(StatusInternalServerError).WithText("something went wrong")
		}
	}()

	s.Handler(req, res)
}
