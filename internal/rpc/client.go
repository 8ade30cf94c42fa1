package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// Client calls ScheduleService over any gRPC connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out Message, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	return c.cc.Invoke(ctx, FullMethod(method), in, out, opts...)
}

func (c *Client) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	out := new(RegisterResponse)
	if err := c.invoke(ctx, MethodRegister, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) VerifyOTP(ctx context.Context, in *VerifyOTPRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	out := new(AuthResponse)
	if err := c.invoke(ctx, MethodVerifyOTP, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	out := new(AuthResponse)
	if err := c.invoke(ctx, MethodLogin, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListConsultants(ctx context.Context, in *ListConsultantsRequest, opts ...grpc.CallOption) (*ListConsultantsResponse, error) {
	out := new(ListConsultantsResponse)
	if err := c.invoke(ctx, MethodListConsultants, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetConsultant(ctx context.Context, in *GetConsultantRequest, opts ...grpc.CallOption) (*Consultant, error) {
	out := new(Consultant)
	if err := c.invoke(ctx, MethodGetConsultant, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) BookAppointment(ctx context.Context, in *BookAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	out := new(AppointmentResponse)
	if err := c.invoke(ctx, MethodBookAppointment, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CancelAppointment(ctx context.Context, in *CancelAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	out := new(AppointmentResponse)
	if err := c.invoke(ctx, MethodCancelAppointment, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListAppointments(ctx context.Context, in *ListAppointmentsRequest, opts ...grpc.CallOption) (*ListAppointmentsResponse, error) {
	out := new(ListAppointmentsResponse)
	if err := c.invoke(ctx, MethodListAppointments, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SetAppointmentStatus(ctx context.Context, in *SetAppointmentStatusRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	out := new(AppointmentResponse)
	if err := c.invoke(ctx, MethodSetAppointmentStatus, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
