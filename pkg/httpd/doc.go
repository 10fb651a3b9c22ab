// Package httpd is a minimal static-file HTTP/1.1 responder driven by a
// thread pool.
//
// Server accepts TCP connections and submits each one to a pool as a single
// job. Handler reads the request once into a fixed buffer, matches the
// request line exactly against a small route table (/, /hello, /goodbye,
// anything else is not found) and writes back
//
//	<status line>\r\nContent-Length: <n>\r\n\r\n<body>
//
// There is no header parsing, keep-alive or chunking. One connection gets one
// response and is closed.
//
// Serve stops on context cancellation or after ServerConfig.MaxConnections
// accepted connections. It never waits for in-flight requests; shutting the
// pool down afterwards does.
package httpd
