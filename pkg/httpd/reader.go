package httpd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxBodyBytes caps how much of a request body a session will buffer.
// Declarations beyond the cap are rejected as malformed.
const maxBodyBytes = 64 * 1024

type baseReader struct {
	r     *bufio.Reader
	errCh chan error
}

func (r *baseReader) ErrorOccurred() <-chan error {
	return r.errCh
}

// similar to readLineSlice() in net/textproto/reader.go
func (r *baseReader) readLine() (string, error) {
	var line []byte
	for {
		l, more, err := r.r.ReadLine()
		if err != nil {
			return "", err
		}
		if line == nil && !more {
			return string(l), nil
		}
		line = append(line, l...)
		if !more {
			break
		}
	}
	return string(line), nil
}

func (r *baseReader) readHeaders() (*Header, error) {
	headers := NewHeader()
	for {
		line, err := r.readLine()
		if err != nil {
			if err == io.EOF {
				return nil, err
			}
			return nil, fmt.Errorf("failed to read headers: %w", err)
		}
		if len(line) == 0 {
			break
		}
		fs := strings.SplitN(line, ":", 2)
		if len(fs) != 2 {
			return nil, fmt.Errorf("invalid header format: %q", line)
		}
		headers.Set(strings.TrimSpace(fs[0]), strings.TrimSpace(fs[1]))
	}
	return headers, nil
}

// RequestReader reads one HTTP/1.x request: request line, headers and,
// when Content-Length is present, up to maxBodyBytes of body.
type RequestReader struct {
	baseReader
	req   *Request
	reqCh chan *Request
}

func NewRequestReader(r io.Reader) *RequestReader {
	var br *bufio.Reader
	if casted, ok := r.(*bufio.Reader); ok {
		br = casted
	} else {
		br = bufio.NewReader(r)
	}
	rr := &RequestReader{
		baseReader{br, make(chan error, 1)},
		&Request{},
		make(chan *Request, 1),
	}
	return rr
}

func (r *RequestReader) Start() {
	go func() {
		if err := r.readRequestLine(); err != nil {
			r.errCh <- err
			return
		}
		if err := r.readRequestHeaders(); err != nil {
			r.errCh <- err
			return
		}
		if err := r.readRequestBody(); err != nil {
			r.errCh <- err
			return
		}
		r.reqCh <- r.req
	}()
}

func (r *RequestReader) readRequestLine() error {
	rl, err := r.readLine()
	if err != nil {
		if err == io.EOF {
			return err
		}
		return fmt.Errorf("failed to read request line: %w", err)
	}
	fields := strings.Split(rl, " ")
	if len(fields) != 3 {
		return fmt.Errorf("invalid request line: %q", rl)
	}
	r.req.Method = fields[0]
	r.req.Path, r.req.Query = splitTarget(fields[1])
	r.req.Version = fields[2]
	return nil
}

func (r *RequestReader) readRequestHeaders() error {
	headers, err := r.readHeaders()
	if err == nil {
		r.req.Headers = headers
	}
	return err
}

func (r *RequestReader) readRequestBody() error {
	cls, ok := r.req.Headers.Get("content-length")
	if !ok {
		return nil
	}
	cl, err := strconv.Atoi(cls)
	if err != nil || cl < 0 {
		return fmt.Errorf("invalid Content-Length: %q", cls)
	}
	if cl == 0 {
		return nil
	}
	if cl > maxBodyBytes {
		return fmt.Errorf("request body too large: %d bytes", cl)
	}
	body := make([]byte, cl)
	if _, err := io.ReadFull(r.r, body); err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	r.req.Body = body
	return nil
}

func (r *RequestReader) RequestReceived() <-chan *Request {
	return r.reqCh
}

// splitTarget strips the query string off a request-target so routing
// sees the literal path only.
func splitTarget(target string) (path, query string) {
	if i := strings.IndexByte(target, '?'); i != -1 {
		return target[:i], target[i+1:]
	}
	return target, ""
}
