package httpd

import "strconv"

// FormatResponse renders a minimal response: the status line, a
// Content-Length header, a blank line and the body.
func FormatResponse(statusLine string, body []byte) []byte {
	length := strconv.Itoa(len(body))

	out := make([]byte, 0, len(statusLine)+len(length)+len(body)+22)
	out = append(out, statusLine...)
	out = append(out, "\r\nContent-Length: "...)
	out = append(out, length...)
	out = append(out, "\r\n\r\n"...)
	out = append(out, body...)
	return out
}
