// Package server exposes the compiler over a line-oriented TCP protocol:
// one JSON request per connection, answered with one JSON response. It is
// the network analogue of the CLI's one-shot compile command.
package server

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sys/unix"

	"tinylang/internal/buildcache"
	"tinylang/internal/compiler"
)

// maxConcurrentCompiles bounds how many compiles run at once, the analogue
// of a forking TCPServer's request_queue_size.
const maxConcurrentCompiles = 32

// request is the wire shape of a single connection's JSON payload.
type request struct {
	Command string `json:"command"`
	Code    string `json:"code"`
}

// response is the wire shape of the reply. Only the field relevant to the
// command that produced it is populated.
type response struct {
	Program string `json:"program,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Server accepts connections and compiles one request per connection.
type Server struct {
	Options compiler.Options
	Cache   *buildcache.Cache

	sem *semaphore.Weighted
}

// New creates a Server ready to Serve. cache may be nil to disable
// memoization.
func New(opts compiler.Options, cache *buildcache.Cache) *Server {
	return &Server{
		Options: opts,
		Cache:   cache,
		sem:     semaphore.NewWeighted(maxConcurrentCompiles),
	}
}

// Listen opens a TCP listener on addr with SO_REUSEADDR set, the analogue of
// Python's ForkingTCPServer(allow_reuse_address=True).
func Listen(addr string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listening on %s", addr)
	}
	return ln, nil
}

// Serve accepts connections on ln until it is closed, handling each on its
// own goroutine.
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return errors.Wrap(err, "accepting connection")
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	requestID := uuid.NewString()
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(30 * time.Second))

	var req request
	if err := json.NewDecoder(bufio.NewReader(conn)).Decode(&req); err != nil {
		log.Printf("request %s: malformed request: %v", requestID, err)
		s.reply(conn, requestID, response{Error: "malformed request"})
		return
	}

	switch req.Command {
	case "ping":
		log.Printf("request %s: ping", requestID)
		s.reply(conn, requestID, response{})

	case "compile":
		s.compile(conn, requestID, req.Code)

	default:
		log.Printf("request %s: unknown command %q", requestID, req.Command)
		s.reply(conn, requestID, response{Error: "unknown command: " + req.Command})
	}
}

func (s *Server) compile(conn net.Conn, requestID, code string) {
	if err := s.sem.Acquire(context.Background(), 1); err != nil {
		s.reply(conn, requestID, response{Error: "server busy"})
		return
	}
	defer s.sem.Release(1)

	var cacheKey string
	if s.Cache != nil {
		cacheKey = buildcache.Key(code, s.Options.LinkWithC)
		if program, found, err := s.Cache.Lookup(cacheKey); err != nil {
			log.Printf("request %s: cache lookup failed: %v", requestID, err)
		} else if found {
			log.Printf("request %s: served from cache", requestID)
			s.reply(conn, requestID, response{Program: base64.StdEncoding.EncodeToString(program)})
			return
		}
	}

	log.Printf("request %s: compiling %d bytes of source", requestID, len(code))
	program, err := compiler.Compile("<network>", code, s.Options)
	if err != nil {
		log.Printf("request %s: compile failed: %v", requestID, err)
		s.reply(conn, requestID, response{Error: fmt.Sprintf("%+v", err)})
		return
	}

	if s.Cache != nil {
		if entryID, err := s.Cache.Store(cacheKey, program); err != nil {
			log.Printf("request %s: cache store failed: %v", requestID, err)
		} else {
			log.Printf("request %s: cached as %s", requestID, entryID)
		}
	}

	s.reply(conn, requestID, response{Program: base64.StdEncoding.EncodeToString(program)})
}

func (s *Server) reply(conn net.Conn, requestID string, resp response) {
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		log.Printf("request %s: writing response: %v", requestID, err)
	}
}
