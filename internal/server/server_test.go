package server

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"tinylang/internal/compiler"
)

func startTestServer(t *testing.T) net.Addr {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listening: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	srv := New(compiler.Options{}, nil)
	go srv.Serve(ln)
	return ln.Addr()
}

func roundTrip(t *testing.T, addr net.Addr, req request) response {
	t.Helper()
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		t.Fatalf("encoding request: %v", err)
	}

	var resp response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return resp
}

func TestPingReturnsEmptyResponse(t *testing.T) {
	addr := startTestServer(t)
	resp := roundTrip(t, addr, request{Command: "ping"})
	if resp.Error != "" || resp.Program != "" {
		t.Errorf("ping response = %+v, want empty", resp)
	}
}

func TestUnknownCommandReturnsError(t *testing.T) {
	addr := startTestServer(t)
	resp := roundTrip(t, addr, request{Command: "frobnicate"})
	if resp.Error == "" {
		t.Errorf("expected an error for an unknown command, got %+v", resp)
	}
}

func TestMalformedRequestReturnsError(t *testing.T) {
	addr := startTestServer(t)
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	conn.Write([]byte("not json"))
	conn.(*net.TCPConn).CloseWrite()

	var resp response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error == "" {
		t.Errorf("expected an error for a malformed request, got %+v", resp)
	}
}

func TestCompileTypeErrorReturnsErrorField(t *testing.T) {
	addr := startTestServer(t)
	resp := roundTrip(t, addr, request{Command: "compile", Code: "1 + true"})
	if resp.Error == "" {
		t.Errorf("expected a type error in the response, got %+v", resp)
	}
}
