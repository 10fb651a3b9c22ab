package httpd

import (
	"bytes"
	"strconv"
	"strings"
)

// Status lines written by the responder.
const (
	StatusOK          = "HTTP/1.1 200 OK"
	StatusNotFound    = "HTTP/1.1 404 NOT FOUND"
	StatusServerError = "HTTP/1.1 500 INTERNAL SERVER ERROR"
)

const (
	requestLinePrefix = "GET "
	requestLineSuffix = " HTTP/1.1\r\n"
	notFoundRouteName = "not_found"
)

// Route maps an exact request line to a static file.
type Route struct {
	// Name identifies the route in logs and hit counters.
	Name string

	// RequestLine is matched as a prefix of the raw request, CRLF included.
	RequestLine string

	// StatusLine is written as the first line of the response.
	StatusLine string

	// File is the static file served, relative to the handler's directory.
	File string
}

// GET builds a route answering "GET path HTTP/1.1" with 200 and file.
func GET(name, path, file string) Route {
	return Route{
		Name:        name,
		RequestLine: requestLinePrefix + path + requestLineSuffix,
		StatusLine:  StatusOK,
		File:        file,
	}
}

// Code returns the numeric status code of the route's status line, or 0
// if it cannot be parsed.
func (r Route) Code() int {
	return statusCode(r.StatusLine)
}

func statusCode(statusLine string) int {
	fields := strings.Fields(statusLine)
	if len(fields) < 2 {
		return 0
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0
	}
	return code
}

// DefaultRoutes returns the built-in index, hello and goodbye pages.
func DefaultRoutes() []Route {
	return []Route{
		GET("index", "/", "index.html"),
		GET("hello", "/hello", "hello.html"),
		GET("goodbye", "/goodbye", "goodbye.html"),
	}
}

// NotFoundRoute is served when no route matches.
func NotFoundRoute() Route {
	return Route{
		Name:       notFoundRouteName,
		StatusLine: StatusNotFound,
		File:       "404.html",
	}
}

// Router picks a Route by matching the start of a raw request.
type Router struct {
	routes   []Route
	notFound Route
}

// NewRouter creates a router over routes, falling back to notFound.
func NewRouter(routes []Route, notFound Route) *Router {
	return &Router{
		routes:   append([]Route(nil), routes...),
		notFound: notFound,
	}
}

// DefaultRouter creates a router over DefaultRoutes and NotFoundRoute.
func DefaultRouter() *Router {
	return NewRouter(DefaultRoutes(), NotFoundRoute())
}

// Match returns the first route whose request line prefixes request.
func (r *Router) Match(request []byte) Route {
	for _, route := range r.routes {
		if bytes.HasPrefix(request, []byte(route.RequestLine)) {
			return route
		}
	}
	return r.notFound
}

// Routes returns a copy of the configured routes.
func (r *Router) Routes() []Route {
	return append([]Route(nil), r.routes...)
}
