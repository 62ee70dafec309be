package server

import (
	"context"
	"testing"
	"time"

	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/corrosion-lang/corrosion/internal/ir"
)

func startServer(t *testing.T) *Server {
	t.Helper()
	s, err := New("127.0.0.1:0")
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	go s.Serve()
	t.Cleanup(s.Stop)
	return s
}

func compileRPC(t *testing.T, s *Server, sources map[string]string) *dynamic.Message {
	t.Helper()
	conn, err := grpc.NewClient(s.Addr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	req := dynamic.NewMessage(s.inputType)
	for path, text := range sources {
		req.PutMapFieldByName("sources", path, text)
	}
	req.SetFieldByName("entry", "main")

	resp := dynamic.NewMessage(s.outputType)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.Invoke(ctx, "/"+ServiceName+"/Compile", req, resp); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	return resp
}

func TestCompileReturnsBundle(t *testing.T) {
	s := startServer(t)
	resp := compileRPC(t, s, map[string]string{
		"main": `
fn double(x) { x * 2 }
fn main() { double(21) }
`,
	})

	if resp.GetFieldByName("session_id").(string) == "" {
		t.Error("missing session id")
	}
	bundle := resp.GetFieldByName("bundle").([]byte)
	if len(bundle) == 0 {
		t.Fatal("expected a bundle for a clean program")
	}
	mod, err := ir.DecodeBundle(bundle)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mod.BuildID != resp.GetFieldByName("build_id").(string) {
		t.Error("build_id does not match the bundle")
	}
	if mod.Unit("main.double") == nil {
		t.Error("bundle lacks main.double")
	}
}

func TestCompileReportsDiagnostics(t *testing.T) {
	s := startServer(t)
	resp := compileRPC(t, s, map[string]string{
		"main": `
fn main() { missing() }
`,
	})

	diags := resp.GetFieldByName("diagnostics").([]interface{})
	if len(diags) == 0 {
		t.Fatal("expected diagnostics for an unbound name")
	}
	first := diags[0].(*dynamic.Message)
	if first.GetFieldByName("severity").(string) != "error" {
		t.Errorf("severity = %v", first.GetFieldByName("severity"))
	}
	if len(resp.GetFieldByName("bundle").([]byte)) != 0 {
		t.Error("no bundle should ship alongside errors")
	}
}

func TestCompileMultiModule(t *testing.T) {
	s := startServer(t)
	resp := compileRPC(t, s, map[string]string{
		"main": `
import "util" as util
fn main() { util.answer() }
`,
		"util": `
pub fn answer() { 42 }
`,
	})

	bundle := resp.GetFieldByName("bundle").([]byte)
	mod, err := ir.DecodeBundle(bundle)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mod.Unit("util.answer") == nil {
		t.Error("bundle lacks the imported module's unit")
	}
}
