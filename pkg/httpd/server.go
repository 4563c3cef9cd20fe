package httpd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sndbox/httpd/pkg/config"
)

// Server binds one TCP address and serves each accepted connection as a
// single-exchange Session on a fixed pool of workers. The pool size and
// the accept queue depth are set once at construction; the Go runtime
// netpoller is the readiness mechanism underneath.
type Server struct {
	addr         string
	router       *Router
	workers      int
	readTimeout  time.Duration
	writeTimeout time.Duration
	log          zerolog.Logger

	ln    net.Listener
	conns chan net.Conn
	quit  chan struct{}
}

func NewServer(cfg *config.Config, router *Router, log zerolog.Logger) *Server {
	workers := cfg.Server.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	queue := cfg.Server.AcceptQueue
	if queue <= 0 {
		queue = 128
	}
	return &Server{
		addr:         cfg.ListenAddr(),
		router:       router,
		workers:      workers,
		readTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		writeTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		log:          log,
		conns:        make(chan net.Conn, queue),
		quit:         make(chan struct{}),
	}
}

// Listen binds the configured address. A bind failure is fatal to the
// server; the caller reports it and exits.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.ln = ln
	return nil
}

// Addr returns the bound address. Useful when the configured port is 0.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve runs the worker pool and the accept loop until ctx is cancelled
// or the listener fails fatally. It blocks; in-flight sessions are
// released before it returns.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.runWorker(id)
		}(i)
	}
	s.log.Info().Int("workers", s.workers).Str("addr", s.ln.Addr().String()).Msg("serving")

	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-stopped:
		}
		close(s.quit)
		s.ln.Close()
	}()

	err := s.acceptLoop()
	close(stopped)
	close(s.conns)
	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// acceptLoop hands each accepted connection to the pool and keeps
// accepting; it never waits on a session. Transient accept errors are
// logged and skipped, a closed listener ends the loop.
func (s *Server) acceptLoop() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.log.Info().Msg("listener closed, no longer accepting")
				return nil
			}
			s.log.Error().Err(err).Msg("accept error")
			continue
		}
		s.conns <- conn
	}
}

func (s *Server) runWorker(id int) {
	log := s.log.With().Int("worker", id).Logger()
	log.Debug().Msg("worker started")
	for conn := range s.conns {
		sess := newSession(conn, s)
		sess.Run()
	}
	log.Debug().Msg("worker stopped")
}
