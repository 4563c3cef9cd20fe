package httpd

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Session owns one accepted connection for exactly one request/response
// exchange. Lifecycle: accepted -> reading -> dispatching -> writing ->
// closed; the connection is never reused.
type Session struct {
	conn         net.Conn
	reader       *bufio.Reader
	router       *Router
	readTimeout  time.Duration
	writeTimeout time.Duration
	log          zerolog.Logger
	quit         <-chan struct{}
	req          *Request
	res          *Response
}

type stateFunc func(*Session) stateFunc

func newSession(conn net.Conn, srv *Server) *Session {
	return &Session{
		conn:         conn,
		reader:       bufio.NewReader(conn),
		router:       srv.router,
		readTimeout:  srv.readTimeout,
		writeTimeout: srv.writeTimeout,
		log:          srv.log.With().Str("remote", conn.RemoteAddr().String()).Logger(),
		quit:         srv.quit,
	}
}

// Run drives the session state machine to completion. The connection is
// closed when Run returns.
func (s *Session) Run() {
	for state := waitForRequest; state != nil; {
		state = state(s)
	}
}

func (s *Session) requestReceived(req *Request) stateFunc {
	s.req = req
	s.log.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("headers", req.Headers.Len()).
		Msg("request received")
	return dispatchRequest
}

// readFailed decides whether a failed read deserves a best-effort 400.
// A client that closed early or timed out gets nothing.
func (s *Session) readFailed(err error) stateFunc {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		s.log.Debug().Msg("connection closed before a full request arrived")
		return finishSession
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		s.log.Warn().Err(err).Msg("read failed")
		return finishSession
	}
	s.log.Warn().Err(err).Msg("malformed request")
	s.res = NewResponse(400, []byte("Bad request"))
	return sendResponse
}

// state funcs

func waitForRequest(s *Session) stateFunc {
	if s.readTimeout > 0 {
		s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	}
	r := NewRequestReader(s.reader)
	r.Start()
	select {
	case req := <-r.RequestReceived():
		return s.requestReceived(req)
	case err := <-r.ErrorOccurred():
		return s.readFailed(err)
	case <-s.quit:
		return finishSession
	}
}

func dispatchRequest(s *Session) stateFunc {
	if s.req.Method != "GET" {
		s.res = NotFoundHandler(s.req)
		return sendResponse
	}
	handler := s.router.Dispatch(s.req.Path)
	s.res = handler(s.req)
	return sendResponse
}

func sendResponse(s *Session) stateFunc {
	if s.writeTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	s.res.Headers.Set("Content-Length", strconv.Itoa(len(s.res.Body)))
	s.res.Headers.Set("Connection", "close")
	if err := WriteResponse(s.conn, s.res); err != nil {
		s.log.Warn().Err(err).Msg("write failed")
	}
	return finishSession
}

func finishSession(s *Session) stateFunc {
	if err := s.conn.Close(); err != nil {
		s.log.Debug().Err(err).Msg("close failed")
	}
	return nil
}
