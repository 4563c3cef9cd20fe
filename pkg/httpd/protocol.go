package httpd

// Not map[string][]string, unlike http.Header. Names are folded to lower
// case on insert and insertion order is preserved, so the echo handler can
// reproduce headers exactly as they arrived.
type Header struct {
	names  []string
	values map[string]string
}

func NewHeader() *Header {
	return &Header{values: make(map[string]string)}
}

// Set stores a header value under the case-folded name. Setting a name
// twice overwrites the value but keeps the original position.
func (h *Header) Set(name, value string) {
	name = foldName(name)
	if _, ok := h.values[name]; !ok {
		h.names = append(h.names, name)
	}
	h.values[name] = value
}

func (h *Header) Get(name string) (string, bool) {
	v, ok := h.values[foldName(name)]
	return v, ok
}

func (h *Header) Len() int {
	return len(h.names)
}

// Each calls fn for every header in insertion order.
func (h *Header) Each(fn func(name, value string)) {
	for _, name := range h.names {
		fn(name, h.values[name])
	}
}

func foldName(name string) string {
	b := []byte(name)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

type Request struct {
	Method  string
	Path    string // request-target with the query string stripped
	Query   string // raw query string, without the leading '?'
	Version string
	Headers *Header
	Body    []byte
}

type Response struct {
	Version string
	Status  int
	Phrase  string
	Headers *Header
	Body    []byte
}

var statusPhrases = map[int]string{
	200: "OK",
	400: "Bad Request",
	404: "Not Found",
	500: "Internal Server Error",
}

// NewResponse builds a response with the canonical phrase for |status|.
func NewResponse(status int, body []byte) *Response {
	phrase, ok := statusPhrases[status]
	if !ok {
		phrase = "Unknown"
	}
	return &Response{
		Version: "HTTP/1.1",
		Status:  status,
		Phrase:  phrase,
		Headers: NewHeader(),
		Body:    body,
	}
}
