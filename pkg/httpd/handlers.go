package httpd

import "bytes"

// HelloHandler ignores the request and answers with a fixed greeting.
func HelloHandler(req *Request) *Response {
	res := NewResponse(200, []byte("hello\n"))
	res.Headers.Set("Content-Type", "text/plain")
	return res
}

// HeadersHandler echoes the request headers, one "name: value" line per
// header, in the order they appeared in the request. Names come back
// lower-cased per the parser's folding policy.
func HeadersHandler(req *Request) *Response {
	var buf bytes.Buffer
	req.Headers.Each(func(name, value string) {
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(value)
		buf.WriteByte('\n')
	})
	res := NewResponse(200, buf.Bytes())
	res.Headers.Set("Content-Type", "text/plain")
	return res
}

// NotFoundHandler is the router's default for unmatched paths.
func NotFoundHandler(req *Request) *Response {
	res := NewResponse(404, []byte("Not found"))
	res.Headers.Set("Content-Type", "text/plain")
	return res
}
