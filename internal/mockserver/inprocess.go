package mockserver

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

// InProcessTarget is the dial target to use with InProcess.DialOption.
const InProcessTarget = "passthrough:///mockserver"

// InProcess is a server listening on an in-memory connection.
type InProcess struct {
	lis *bufconn.Listener
	gs  *grpc.Server
}

// StartInProcess serves s without touching the network.
func (s *Server) StartInProcess() *InProcess {
	p := &InProcess{
		lis: bufconn.Listen(1 << 20),
		gs:  s.NewGRPCServer(),
	}
	go func() { _ = p.gs.Serve(p.lis) }()
	return p
}

// DialOption routes a client connection to the in-memory listener.
func (p *InProcess) DialOption() grpc.DialOption {
	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return p.lis.DialContext(ctx)
	})
}

// Close stops the server.
func (p *InProcess) Close() {
	p.gs.Stop()
}
