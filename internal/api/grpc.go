package api

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "gophnotes.NotesService"

// Method names.
const (
	MethodPing      = "Ping"
	MethodRegister  = "Register"
	MethodLogin     = "Login"
	MethodRefresh   = "Refresh"
	MethodLogout    = "Logout"
	MethodSync      = "Sync"
	MethodListNotes = "ListNotes"
	MethodShare     = "Share"
	MethodExport    = "Export"
)

// FullMethod returns the "/service/method" path of a method.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// NotesServiceServer is implemented by the gRPC front of the server.
type NotesServiceServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	Refresh(context.Context, *RefreshRequest) (*AuthResponse, error)
	Logout(context.Context, *LogoutRequest) (*Empty, error)
	Sync(context.Context, *SyncRequest) (*SyncResponse, error)
	ListNotes(context.Context, *Empty) (*NotesList, error)
	Share(context.Context, *ShareRequest) (*Empty, error)
	Export(context.Context, *ExportRequest) (*ExportResponse, error)
}

func unary[Req, Resp any](name string, call func(NotesServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	info := &grpc.UnaryServerInfo{FullMethod: FullMethod(name)}
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(NotesServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			i := *info
			i.Server = srv
			return interceptor(ctx, in, &i, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

// NotesServiceDesc describes the service for grpc.Server.RegisterService.
var NotesServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*NotesServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodPing, NotesServiceServer.Ping),
		unary(MethodRegister, NotesServiceServer.Register),
		unary(MethodLogin, NotesServiceServer.Login),
		unary(MethodRefresh, NotesServiceServer.Refresh),
		unary(MethodLogout, NotesServiceServer.Logout),
		unary(MethodSync, NotesServiceServer.Sync),
		unary(MethodListNotes, NotesServiceServer.ListNotes),
		unary(MethodShare, NotesServiceServer.Share),
		unary(MethodExport, NotesServiceServer.Export),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophnotes/notes_service",
}

func RegisterNotesServiceServer(s grpc.ServiceRegistrar, srv NotesServiceServer) {
	s.RegisterService(&NotesServiceDesc, srv)
}

// NotesServiceClient calls the service with the JSON codec.
type NotesServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewNotesServiceClient(cc grpc.ClientConnInterface) *NotesServiceClient {
	return &NotesServiceClient{cc: cc}
}

func invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, name string, in *Req, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *NotesServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingRequest, PingResponse](ctx, c.cc, MethodPing, in, opts)
}

func (c *NotesServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[RegisterRequest, AuthResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *NotesServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[LoginRequest, AuthResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *NotesServiceClient) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[RefreshRequest, AuthResponse](ctx, c.cc, MethodRefresh, in, opts)
}

func (c *NotesServiceClient) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[LogoutRequest, Empty](ctx, c.cc, MethodLogout, in, opts)
}

func (c *NotesServiceClient) Sync(ctx context.Context, in *SyncRequest, opts ...grpc.CallOption) (*SyncResponse, error) {
	return invoke[SyncRequest, SyncResponse](ctx, c.cc, MethodSync, in, opts)
}

func (c *NotesServiceClient) ListNotes(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*NotesList, error) {
	return invoke[Empty, NotesList](ctx, c.cc, MethodListNotes, in, opts)
}

func (c *NotesServiceClient) Share(ctx context.Context, in *ShareRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[ShareRequest, Empty](ctx, c.cc, MethodShare, in, opts)
}

func (c *NotesServiceClient) Export(ctx context.Context, in *ExportRequest, opts ...grpc.CallOption) (*ExportResponse, error) {
	return invoke[ExportRequest, ExportResponse](ctx, c.cc, MethodExport, in, opts)
}
