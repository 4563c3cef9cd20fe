package httpd

import (
	"fmt"
	"io"
	"unicode"
)

func capitalizeHeader(h string) string {
	ret := make([]rune, len(h))
	cap := true
	for i, c := range h {
		r := rune(c)
		if cap && unicode.IsLetter(r) {
			ret[i] = unicode.ToUpper(r)
			cap = false
		} else {
			ret[i] = r
		}
		if c == '-' {
			cap = true
		}
	}
	return string(ret)
}

// WriteResponse serializes |res| onto |w|: status line, headers in
// insertion order, blank line, body. Returns the first write error.
func WriteResponse(w io.Writer, res *Response) error {
	if _, err := fmt.Fprintf(w, "%s %d %s\r\n", res.Version, res.Status, res.Phrase); err != nil {
		return err
	}
	var werr error
	res.Headers.Each(func(k, v string) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(w, "%s: %s\r\n", capitalizeHeader(k), v)
	})
	if werr != nil {
		return werr
	}
	if _, err := io.WriteString(w, "\r\n"); err != nil {
		return err
	}
	if len(res.Body) > 0 {
		if _, err := w.Write(res.Body); err != nil {
			return err
		}
	}
	return nil
}
