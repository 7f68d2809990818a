package http

import (
	"strconv"
	"strings"
	"time"
)

type SameSite int

const (
	SameSiteDefaultMode SameSite = iota + 1
	SameSiteLaxMode
	SameSiteStrictMode
	SameSiteNoneMode
)

type Cookie struct {
	Name  string
	Value string

	Path     string
	Domain   string
	Expires  time.Time
	MaxAge   int
	Secure   bool
	HttpOnly bool
	SameSite SameSite
}

// String serializes the cookie for a Set-Cookie header.
func (c *Cookie) String() string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteByte('=')
	sb.WriteString(c.Value)

	if c.Path != "" {
		sb.WriteString("; Path=")
		sb.WriteString(c.Path)
	}
	if c.Domain != "" {
		sb.WriteString("; Domain=")
		sb.WriteString(c.Domain)
	}
	if !c.Expires.IsZero() {
		sb.WriteString("; Expires=")
		sb.WriteString(c.Expires.UTC().Format(TimeFormat))
	}
	if c.MaxAge != 0 {
		sb.WriteString("; Max-Age=")
		sb.WriteString(strconv.Itoa(c.MaxAge))
	}
	if c.Secure {
		sb.WriteString("; Secure")
	}
	if c.HttpOnly {
		sb.WriteString("; HttpOnly")
	}
	switch c.SameSite {
	case SameSiteLaxMode:
		sb.WriteString("; SameSite=Lax")
	case SameSiteStrictMode:
		sb.WriteString("; SameSite=Strict")
	case SameSiteNoneMode:
		sb.WriteString("; SameSite=None")
	}

	return sb.String()
}

// Cookie returns the named cookie sent with the request.
func (req *Request) Cookie(name string) (Cookie, error) {
	header, ok := req.Headers.Lookup("Cookie")
	if !ok {
		return Cookie{}, ErrNoCookie
	}

	for _, pair := range strings.Split(header, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		if k == name {
			return Cookie{Name: k, Value: v}, nil
		}
	}
	return Cookie{}, ErrNoCookie
}
