package http

import "fmt"

type Method string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodConnect Method = "CONNECT"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
)

var methods = map[Method]struct{}{
	MethodGet:     {},
	MethodHead:    {},
	MethodPost:    {},
	MethodPut:     {},
	MethodPatch:   {},
	MethodDelete:  {},
	MethodConnect: {},
	MethodOptions: {},
	MethodTrace:   {},
}

// ParseMethod maps a request line token onto the fixed verb set.
func ParseMethod(token string) (Method, error) {
	m := Method(token)
	if _, ok := methods[m]; !ok {
		return "", fmt.Errorf("%w: unknown method %q", ErrProtocol, token)
	}
	return m, nil
}
