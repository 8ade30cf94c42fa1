// Package rpc defines the schedule.v1.ScheduleService contract: message
// types with their protobuf wire encoding, the gRPC service descriptor and
// a typed client.
package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "schedule.v1.ScheduleService"

const (
	MethodRegister             = "Register"
	MethodVerifyOTP            = "VerifyOTP"
	MethodLogin                = "Login"
	MethodListConsultants      = "ListConsultants"
	MethodGetConsultant        = "GetConsultant"
	MethodBookAppointment      = "BookAppointment"
	MethodCancelAppointment    = "CancelAppointment"
	MethodListAppointments     = "ListAppointments"
	MethodSetAppointmentStatus = "SetAppointmentStatus"
)

// FullMethod returns the gRPC path for method, e.g.
// "/schedule.v1.ScheduleService/Login".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type ScheduleServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	VerifyOTP(context.Context, *VerifyOTPRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	ListConsultants(context.Context, *ListConsultantsRequest) (*ListConsultantsResponse, error)
	GetConsultant(context.Context, *GetConsultantRequest) (*Consultant, error)
	BookAppointment(context.Context, *BookAppointmentRequest) (*AppointmentResponse, error)
	CancelAppointment(context.Context, *CancelAppointmentRequest) (*AppointmentResponse, error)
	ListAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error)
	SetAppointmentStatus(context.Context, *SetAppointmentStatusRequest) (*AppointmentResponse, error)
}

// RegisterScheduleServer registers srv on s. The server must be created
// with ServerOption so requests are decoded by Codec.
func RegisterScheduleServer(s grpc.ServiceRegistrar, srv ScheduleServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServerOption forces Codec for every call on the server.
func ServerOption() grpc.ServerOption {
	return grpc.ForceServerCodec(Codec{})
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScheduleServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodRegister, ScheduleServer.Register),
		unary(MethodVerifyOTP, ScheduleServer.VerifyOTP),
		unary(MethodLogin, ScheduleServer.Login),
		unary(MethodListConsultants, ScheduleServer.ListConsultants),
		unary(MethodGetConsultant, ScheduleServer.GetConsultant),
		unary(MethodBookAppointment, ScheduleServer.BookAppointment),
		unary(MethodCancelAppointment, ScheduleServer.CancelAppointment),
		unary(MethodListAppointments, ScheduleServer.ListAppointments),
		unary(MethodSetAppointmentStatus, ScheduleServer.SetAppointmentStatus),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/schedule/v1/schedule.proto",
}

// unary builds the method handler protoc-gen-go-grpc would generate.
func unary[Req any, PReq interface {
	*Req
	Message
}, Resp Message](name string, call func(ScheduleServer, context.Context, PReq) (Resp, error)) grpc.MethodDesc {
	full := FullMethod(name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := PReq(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(ScheduleServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(PReq))
			})
		},
	}
}
