// Package server exposes the compiler as a gRPC daemon. The service
// descriptor is built at runtime from an embedded proto source via
// protoreflect; requests and responses travel as dynamic messages, so no
// generated stubs exist anywhere in the tree. The server is a thin host
// shell: it feeds source text to the driver and ships back diagnostics plus
// the encoded IR bundle.
package server

import (
	"context"
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"

	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/driver"
	"github.com/corrosion-lang/corrosion/internal/ir"
)

// ServiceName is the fully qualified gRPC service.
const ServiceName = "corrosion.Compiler"

// compileProto is the wire contract. It lives here as source so the
// descriptor can be rebuilt on any host without protoc.
const compileProto = `syntax = "proto3";

package corrosion;

message CompileRequest {
  map<string, string> sources = 1;
  string entry = 2;
  int32 macro_depth = 3;
}

message Diagnostic {
  string code = 1;
  string severity = 2;
  string message = 3;
  int32 line = 4;
  int32 column = 5;
  string module = 6;
}

message CompileResponse {
  string session_id = 1;
  string build_id = 2;
  repeated Diagnostic diagnostics = 3;
  bytes bundle = 4;
}

service Compiler {
  rpc Compile(CompileRequest) returns (CompileResponse);
}
`

// Server hosts the compile service on one listener.
type Server struct {
	grpc *grpc.Server
	lis  net.Listener

	svc        *desc.ServiceDescriptor
	inputType  *desc.MessageDescriptor
	outputType *desc.MessageDescriptor
	diagType   *desc.MessageDescriptor
}

// New builds a server bound to addr (host:port; port 0 picks one).
func New(addr string) (*Server, error) {
	fd, err := parseProto()
	if err != nil {
		return nil, err
	}
	svc := fd.FindService(ServiceName)
	if svc == nil {
		return nil, fmt.Errorf("embedded proto lacks service %s", ServiceName)
	}
	method := svc.FindMethodByName("Compile")
	if method == nil {
		return nil, fmt.Errorf("embedded proto lacks Compile method")
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	s := &Server{
		grpc:       grpc.NewServer(),
		lis:        lis,
		svc:        svc,
		inputType:  method.GetInputType(),
		outputType: method.GetOutputType(),
		diagType:   fd.FindMessage("corrosion.Diagnostic"),
	}
	s.grpc.RegisterService(s.serviceDesc(), s)
	return s, nil
}

func parseProto() (*desc.FileDescriptor, error) {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{
			"corrosion/compile.proto": compileProto,
		}),
	}
	fds, err := parser.ParseFiles("corrosion/compile.proto")
	if err != nil {
		return nil, fmt.Errorf("parsing embedded proto: %w", err)
	}
	return fds[0], nil
}

// serviceDesc hand-builds the grpc registration record; with dynamic
// messages there is no generated code to supply one.
func (s *Server) serviceDesc() *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "Compile",
				Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
					return srv.(*Server).handleCompile(ctx, dec)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "corrosion/compile.proto",
	}
}

// Addr reports the bound address, useful with port 0.
func (s *Server) Addr() string {
	return s.lis.Addr().String()
}

// Serve blocks until Stop.
func (s *Server) Serve() error {
	return s.grpc.Serve(s.lis)
}

// Stop drains in-flight RPCs and shuts down.
func (s *Server) Stop() {
	s.grpc.GracefulStop()
}

func (s *Server) handleCompile(_ context.Context, dec func(interface{}) error) (interface{}, error) {
	req := dynamic.NewMessage(s.inputType)
	if err := dec(req); err != nil {
		return nil, err
	}

	sources := map[string]string{}
	if raw, err := req.TryGetFieldByName("sources"); err == nil {
		if entries, ok := raw.(map[interface{}]interface{}); ok {
			for k, v := range entries {
				path, _ := k.(string)
				text, _ := v.(string)
				if path != "" {
					sources[path] = text
				}
			}
		}
	}
	entry := req.GetFieldByName("entry").(string)
	if entry == "" {
		entry = "main"
	}
	depth := int(req.GetFieldByName("macro_depth").(int32))

	result := driver.Build(sources, driver.Options{Entry: entry, MacroDepth: depth})
	return s.buildResponse(result)
}

func (s *Server) buildResponse(result *driver.Result) (*dynamic.Message, error) {
	resp := dynamic.NewMessage(s.outputType)
	resp.SetFieldByName("session_id", uuid.NewString())

	for _, d := range result.Diagnostics {
		resp.AddRepeatedFieldByName("diagnostics", s.diagMessage(d))
	}

	if result.Module != nil {
		bundle, err := ir.EncodeBundle(result.Module)
		if err != nil {
			return nil, fmt.Errorf("encoding bundle: %w", err)
		}
		resp.SetFieldByName("build_id", result.Module.BuildID)
		resp.SetFieldByName("bundle", bundle)
	}
	return resp, nil
}

func (s *Server) diagMessage(d *diagnostics.DiagnosticError) *dynamic.Message {
	msg := dynamic.NewMessage(s.diagType)
	msg.SetFieldByName("code", string(d.Code))
	msg.SetFieldByName("severity", d.Severity.String())
	msg.SetFieldByName("message", d.Message)
	msg.SetFieldByName("line", int32(d.Line))
	msg.SetFieldByName("column", int32(d.Column))
	msg.SetFieldByName("module", d.Module)
	return msg
}
