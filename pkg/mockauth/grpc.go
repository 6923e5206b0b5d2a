package mockauth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
)

// AppendToOutgoingContext adds "authorization: Bearer <raw value>" to the
// outgoing gRPC metadata of ctx. Without a credential ctx is returned as is.
func AppendToOutgoingContext(ctx context.Context, a Authentication) context.Context {
	raw := a.RawCredential()
	if raw == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+raw)
}

// UnaryClientInterceptor attaches a's credential to every unary call.
func UnaryClientInterceptor(a Authentication) grpc.UnaryClientInterceptor {
	a = a.Clone()
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return invoker(AppendToOutgoingContext(ctx, a), method, req, reply, cc, opts...)
	}
}

// PerRPCCredentials returns gRPC call credentials carrying a's credential.
// Transport security is not required, so they work over insecure test
// connections.
func PerRPCCredentials(a Authentication) credentials.PerRPCCredentials {
	return rpcCredentials{raw: a.RawCredential()}
}

type rpcCredentials struct {
	raw string
}

func (c rpcCredentials) GetRequestMetadata(_ context.Context, _ ...string) (map[string]string, error) {
	if c.raw == "" {
		return nil, nil
	}
	return map[string]string{"authorization": "Bearer " + c.raw}, nil
}

func (c rpcCredentials) RequireTransportSecurity() bool { return false }
