package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"ledger-rpc/message"
	"ledger-rpc/protocol"
	"ledger-rpc/registry"
)

func startServer(t *testing.T, ledger *Ledger) (*Server, string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}

	svr := NewServer(nil)
	ledger.Register(svr)
	go svr.Serve(ln)
	t.Cleanup(func() { svr.Shutdown(time.Second) })

	return svr, ln.Addr().String()
}

// call sends one framed request and reads the raw response until the node closes.
func call(t *testing.T, addr string, body string) message.Response {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	if err := protocol.WriteFrame(conn, []byte(body)); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	raw, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}

	resp, err := message.DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse(%q) failed: %v", raw, err)
	}
	return *resp
}

func TestServerHello(t *testing.T) {
	_, addr := startServer(t, NewLedger(1000))

	resp := call(t, addr, `{"type":0,"message":"hello"}`)
	if resp.Status != message.StatusOK || resp.Message != "hi" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestServerTransaction(t *testing.T) {
	ledger := NewLedger(100)
	_, addr := startServer(t, ledger)

	resp := call(t, addr, `{"type":1,"recipient_public_key":"QUJD","amount":60,"fee":5}`)
	if resp.Status != message.StatusOK {
		t.Fatalf("first transaction: got status %d", resp.Status)
	}
	if got := ledger.currentBalance(); got != 35 {
		t.Errorf("balance = %d, want 35", got)
	}

	resp = call(t, addr, `{"type":1,"recipient_public_key":"QUJD","amount":60,"fee":0}`)
	if resp.Status != message.StatusPaymentRequired {
		t.Fatalf("overspend: got status %d, want 402", resp.Status)
	}
	if got := ledger.currentBalance(); got != 35 {
		t.Errorf("balance changed on rejected transaction: %d", got)
	}
}

func TestServerTransactionBadRecipientKey(t *testing.T) {
	ledger := NewLedger(100)
	_, addr := startServer(t, ledger)

	for _, key := range []string{"not base64!", ""} {
		body := `{"type":1,"recipient_public_key":"` + key + `","amount":10,"fee":0}`
		if resp := call(t, addr, body); resp.Status != message.StatusBadRequest {
			t.Errorf("key %q: got status %d, want 400", key, resp.Status)
		}
	}
	if got := ledger.currentBalance(); got != 100 {
		t.Errorf("balance changed on rejected transaction: %d", got)
	}
}

func TestServerComputationAndOutput(t *testing.T) {
	_, addr := startServer(t, NewLedger(0))

	job := `{"type":2,"program":"add","inputs":[1,2]}`
	resp := call(t, addr, job)
	if resp.Status != message.StatusOK {
		t.Fatalf("computation: got status %d", resp.Status)
	}

	resp = call(t, addr, `{"type":3,"block_height":1,"computation_index":0}`)
	if resp.Status != message.StatusOK {
		t.Fatalf("output: got status %d", resp.Status)
	}
	out, err := base64.StdEncoding.DecodeString(resp.Output)
	if err != nil {
		t.Fatalf("output is not base64: %v", err)
	}
	if string(out) != job {
		t.Errorf("output = %s, want %s", out, job)
	}
}

func TestServerOutputNotFound(t *testing.T) {
	_, addr := startServer(t, NewLedger(0))

	for _, body := range []string{
		`{"type":3,"block_height":0,"computation_index":0}`,
		`{"type":3,"block_height":7,"computation_index":0}`,
	} {
		if resp := call(t, addr, body); resp.Status != message.StatusNotFound {
			t.Errorf("%s: got status %d, want 404", body, resp.Status)
		}
	}
}

func TestServerBadRequest(t *testing.T) {
	_, addr := startServer(t, NewLedger(0))

	resp := call(t, addr, `{"type":1,"recipient_public_key":"QUJD","amount":"ten"}`)
	if resp.Status != message.StatusBadRequest {
		t.Fatalf("got status %d, want 400", resp.Status)
	}
}

func TestServerComputationNotObject(t *testing.T) {
	_, addr := startServer(t, NewLedger(0))

	resp := call(t, addr, `[1,2,3]`)
	if resp.Status != message.StatusInternalServerError {
		t.Fatalf("got status %d, want 500", resp.Status)
	}
}

func TestServerUnknownHandler(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	svr := NewServer(nil)
	go svr.Serve(ln)
	defer svr.Shutdown(time.Second)
	addr := ln.Addr().String()

	resp := call(t, addr, `{"type":0,"message":"hello"}`)
	if resp.Status != message.StatusBadRequest {
		t.Fatalf("got status %d, want 400", resp.Status)
	}
}

func TestServerResponseIsRaw(t *testing.T) {
	_, addr := startServer(t, NewLedger(0))

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	protocol.WriteFrame(conn, []byte(`{"type":0,"message":"hello"}`))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	raw, _ := io.ReadAll(conn)
	if len(raw) == 0 || raw[0] != '{' {
		t.Fatalf("response should start with '{', got %q", raw)
	}
	if !json.Valid(raw) {
		t.Fatalf("response is not a single JSON document: %q", raw)
	}
}

func TestServerAdvertise(t *testing.T) {
	svr, addr := startServer(t, NewLedger(0))
	reg := registry.NewStaticRegistry("ledger")

	if err := svr.Advertise(context.Background(), reg, "ledger", addr, 10); err != nil {
		t.Fatalf("Advertise failed: %v", err)
	}
	instances, _ := reg.Discover(context.Background(), "ledger")
	if len(instances) != 1 || instances[0].Addr != addr {
		t.Fatalf("instances after Advertise = %+v", instances)
	}

	if err := svr.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	instances, _ = reg.Discover(context.Background(), "ledger")
	if len(instances) != 0 {
		t.Fatalf("instances after Shutdown = %+v", instances)
	}
}

func TestServerShutdownWhileClientsConnect(t *testing.T) {
	svr, addr := startServer(t, NewLedger(0))

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				continue
			}
			protocol.WriteFrame(conn, []byte(`{"type":0,"message":"hello"}`))
			conn.Close()
		}
	}()

	time.Sleep(50 * time.Millisecond)
	if err := svr.Shutdown(2 * time.Second); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	close(stop)
	<-done

	if conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond); err == nil {
		conn.Close()
		t.Fatal("listener still accepting after Shutdown")
	}
}
