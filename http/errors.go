package http

import "errors"

var (
	// ErrProtocol marks malformed or unsupported wire data. It is fatal to
	// the exchange: parsing stops and the caller closes the connection.
	ErrProtocol = errors.New("http: protocol error")

	// ErrShortBody reports a connection that closed before the declared
	// number of body bytes arrived.
	ErrShortBody = errors.New("http: connection closed before body was fully transferred")

	// ErrResponseSent reports a second Send on the same response.
	ErrResponseSent = errors.New("http: response already sent")

	ErrNoCookie = errors.New("http: named cookie not present")
)
