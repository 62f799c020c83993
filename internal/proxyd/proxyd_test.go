package proxyd

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/sehnryr/minecraft-go-proxy/internal/fakeserver"
	"github.com/sehnryr/minecraft-go-proxy/internal/frame"
	"github.com/sehnryr/minecraft-go-proxy/internal/logging"
	"github.com/sehnryr/minecraft-go-proxy/internal/protocol"
)

// listenLoopback starts a real TCP listener on an OS-assigned port.
func listenLoopback(t *testing.T) net.Listener {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	return l
}

func TestProxydStatusRoundTripOverTCP(t *testing.T) {
	upstream := listenLoopback(t)
	defer upstream.Close()
	go func() {
		for {
			conn, err := upstream.Accept()
			if err != nil {
				return
			}
			go fakeserver.Serve(conn, fakeserver.DefaultConfig(), logging.Default(false))
		}
	}()

	proxyListener := listenLoopback(t)
	proxyAddr := proxyListener.Addr().String()
	proxyListener.Close() // free the port; Run binds it again below

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := Config{
		ProxyAddr:  ":" + portOf(t, proxyAddr),
		ServerAddr: upstream.Addr().String(),
	}

	runErr := make(chan error, 1)
	go func() { runErr <- Run(ctx, cfg) }()

	var conn net.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("tcp", "127.0.0.1:"+portOf(t, proxyAddr))
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("failed to dial proxy: %v", err)
	}
	defer conn.Close()

	handshake := protocol.Handshake{
		ProtocolVersion: 772,
		ServerAddress:   "127.0.0.1",
		ServerPort:      25565,
		Intent:          protocol.IntentStatus,
	}
	hsBuf := &bytes.Buffer{}
	if err := handshake.Encode(hsBuf); err != nil {
		t.Fatalf("encode handshake: %v", err)
	}
	if err := frame.WritePacket(conn, frame.Packet{ID: 0x00, Payload: hsBuf.Bytes()}, frame.Off); err != nil {
		t.Fatalf("write handshake: %v", err)
	}
	if err := frame.WritePacket(conn, frame.Packet{ID: 0x00, Payload: nil}, frame.Off); err != nil {
		t.Fatalf("write status_request: %v", err)
	}

	resp, err := frame.ReadPacket(conn, frame.Off)
	if err != nil {
		t.Fatalf("read status_response: %v", err)
	}
	if !bytes.Contains(resp.Payload, []byte("proxied by minecraft-go-proxy")) {
		t.Errorf("expected injected marker in proxied status_response, got %s", resp.Payload)
	}

	cancel()
	select {
	case <-runErr:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func portOf(t *testing.T, addr string) string {
	t.Helper()
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	return port
}
