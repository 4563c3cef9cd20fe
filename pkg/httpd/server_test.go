package httpd

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sndbox/httpd/pkg/config"
)

func startTestServer(t *testing.T) (string, func()) {
	t.Helper()

	cfg := config.LoadDefault()
	cfg.Server.Address = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.Workers = 4

	srv := NewServer(cfg, newTestRouter(), zerolog.Nop())
	if err := srv.Listen(); err != nil {
		t.Fatalf("listen failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
	}()

	shutdown := func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop in time")
		}
	}
	return srv.Addr().String(), shutdown
}

func doRequest(t *testing.T, addr, rawRequest string) string {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(rawRequest)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	// the server closes its end after one exchange, so ReadAll terminates
	b, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return string(b)
}

func TestServerHello(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	actual := doRequest(t, addr, "GET /hello HTTP/1.1\r\nHost: localhost\r\n\r\n")
	ss := []string{
		"HTTP/1.1 200 OK\r\n",
		"Content-Type: text/plain\r\n",
		"Content-Length: 6\r\n",
		"Connection: close\r\n",
		"\r\n",
		"hello\n",
	}
	ExpectEqual(t, strings.Join(ss, ""), actual)
}

func TestServerHeadersEcho(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	actual := doRequest(t, addr, "GET /headers HTTP/1.1\r\nX-Test: 1\r\n\r\n")
	if !strings.HasPrefix(actual, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("expected 200, got %q", actual)
	}
	if !strings.Contains(actual, "\r\n\r\nx-test: 1\n") {
		t.Errorf("body should echo x-test header, got %q", actual)
	}
}

func TestServerUnknownPath(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	actual := doRequest(t, addr, "GET /unknown HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(actual, "HTTP/1.1 404 Not Found\r\n") {
		t.Errorf("expected 404, got %q", actual)
	}
}

// Concurrent sessions stay isolated: every client gets a complete,
// uncorrupted response for its own route.
func TestServerConcurrentSessions(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	const clients = 8
	errCh := make(chan error, clients)
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				errCh <- err
				return
			}
			defer conn.Close()

			var want string
			if n%2 == 0 {
				fmt.Fprintf(conn, "GET /hello HTTP/1.1\r\n\r\n")
				want = "hello\n"
			} else {
				fmt.Fprintf(conn, "GET /headers HTTP/1.1\r\nX-Client: c%d\r\n\r\n", n)
				want = fmt.Sprintf("x-client: c%d\n", n)
			}
			b, err := io.ReadAll(conn)
			if err != nil {
				errCh <- err
				return
			}
			body := string(b)
			if !strings.HasPrefix(body, "HTTP/1.1 200 OK\r\n") {
				errCh <- fmt.Errorf("client %d: expected 200, got %q", n, body)
				return
			}
			if !strings.HasSuffix(body, want) {
				errCh <- fmt.Errorf("client %d: expected body %q, got %q", n, want, body)
				return
			}
			errCh <- nil
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Error(err)
		}
	}
}

// One exchange per connection: after the response the server closes its
// end, a second request on the same socket gets no answer.
func TestServerClosesConnection(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("GET /hello HTTP/1.1\r\n\r\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	b, err := io.ReadAll(conn) // returns only because the server closed
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.HasSuffix(string(b), "hello\n") {
		t.Fatalf("unexpected first response: %q", b)
	}

	// socket is closed server-side; a reused connection yields no second response
	conn.Write([]byte("GET /hello HTTP/1.1\r\n\r\n"))
	conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1)
	if n, err := conn.Read(buf); err == nil || n > 0 {
		t.Errorf("expected closed connection, read %d bytes err=%v", n, err)
	}
}

func TestServerIdempotentResponses(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	first := doRequest(t, addr, "GET /hello HTTP/1.1\r\n\r\n")
	second := doRequest(t, addr, "GET /hello HTTP/1.1\r\n\r\n")
	ExpectEqual(t, first, second)
}

func TestServerListenFailure(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	// binding the same port again must fail
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	cfg := config.LoadDefault()
	cfg.Server.Address = "127.0.0.1"
	fmt.Sscanf(portStr, "%d", &cfg.Server.Port)

	srv := NewServer(cfg, newTestRouter(), zerolog.Nop())
	if err := srv.Listen(); err == nil {
		srv.ln.Close()
		t.Fatal("expected bind failure on an occupied port")
	}
}
