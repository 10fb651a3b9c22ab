package httpd

import (
	"testing"

	"github.com/vnykmshr/webpool/internal/testutil"
)

func TestRouterMatch(t *testing.T) {
	router := DefaultRouter()

	tests := []struct {
		name    string
		request string
		want    string
	}{
		{"index", "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n", "index"},
		{"hello", "GET /hello HTTP/1.1\r\n\r\n", "hello"},
		{"goodbye", "GET /goodbye HTTP/1.1\r\nAccept: */*\r\n\r\n", "goodbye"},
		{"unknown path", "GET /missing HTTP/1.1\r\n\r\n", "not_found"},
		{"path with suffix", "GET /hellothere HTTP/1.1\r\n\r\n", "not_found"},
		{"query string", "GET /?x=1 HTTP/1.1\r\n\r\n", "not_found"},
		{"other method", "POST / HTTP/1.1\r\n\r\n", "not_found"},
		{"http 1.0", "GET / HTTP/1.0\r\n\r\n", "not_found"},
		{"missing crlf", "GET / HTTP/1.1", "not_found"},
		{"empty", "", "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, router.Match([]byte(tt.request)).Name, tt.want)
		})
	}
}

func TestRouteCode(t *testing.T) {
	testutil.AssertEqual(t, GET("x", "/x", "x.html").Code(), 200)
	testutil.AssertEqual(t, NotFoundRoute().Code(), 404)
	testutil.AssertEqual(t, Route{StatusLine: StatusServerError}.Code(), 500)
	testutil.AssertEqual(t, Route{StatusLine: "garbage"}.Code(), 0)
	testutil.AssertEqual(t, Route{StatusLine: "HTTP/1.1 abc"}.Code(), 0)
}

func TestCustomRouter(t *testing.T) {
	fallback := Route{Name: "fallback", StatusLine: StatusNotFound, File: "nope.html"}
	router := NewRouter([]Route{GET("about", "/about", "about.html")}, fallback)

	testutil.AssertEqual(t, router.Match([]byte("GET /about HTTP/1.1\r\n")).File, "about.html")
	testutil.AssertEqual(t, router.Match([]byte("GET / HTTP/1.1\r\n")).Name, "fallback")

	routes := router.Routes()
	routes[0].Name = "mutated"
	testutil.AssertEqual(t, router.Routes()[0].Name, "about")
}

func TestFormatResponse(t *testing.T) {
	got := string(FormatResponse(StatusOK, []byte("<h1>hi</h1>")))
	testutil.AssertEqual(t, got, "HTTP/1.1 200 OK\r\nContent-Length: 11\r\n\r\n<h1>hi</h1>")

	empty := string(FormatResponse(StatusServerError, nil))
	testutil.AssertEqual(t, empty, "HTTP/1.1 500 INTERNAL SERVER ERROR\r\nContent-Length: 0\r\n\r\n")
}

func TestFormatResponseCountsBytes(t *testing.T) {
	// Content-Length counts bytes, not runes.
	got := string(FormatResponse(StatusOK, []byte("héllo")))
	testutil.AssertEqual(t, got, "HTTP/1.1 200 OK\r\nContent-Length: 6\r\n\r\nhéllo")
}
