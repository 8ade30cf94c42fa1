// Package grpcweb serves the schedule service to browsers: gRPC-Web frames
// arrive over HTTP/1.1 and are forwarded to the native gRPC server.
package grpcweb

import (
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	appmw "consult-scheduler/internal/middleware"
	"consult-scheduler/internal/rpc"
	"consult-scheduler/pkg/logging"
)

const (
	frameData    byte = 0x00
	frameTrailer byte = 0x80

	maxBody = 1 << 20
)

// Bridge translates gRPC-Web requests into gRPC calls. Payloads are not
// decoded; they pass through as rpc.Raw.
type Bridge struct {
	conn   grpc.ClientConnInterface
	closer io.Closer
	logger *logging.Logger
}

// New dials the gRPC server at addr (e.g. "localhost:50051").
func New(addr string, logger *logging.Logger) (*Bridge, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpcweb dial: %w", err)
	}
	b := NewWithConn(conn, logger)
	b.closer = conn
	return b, nil
}

// NewWithConn forwards over an existing connection, which the caller owns.
func NewWithConn(conn grpc.ClientConnInterface, logger *logging.Logger) *Bridge {
	if logger == nil {
		logger = logging.Default()
	}
	return &Bridge{conn: conn, logger: logger}
}

func (b *Bridge) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

func cors(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = "*"
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers",
		"Content-Type, X-Grpc-Web, X-User-Agent, Authorization, x-grpc-web")
	h.Set("Access-Control-Expose-Headers",
		"Grpc-Status, Grpc-Message, Grpc-Status-Details-Bin, grpc-status, grpc-message")
	h.Set("Access-Control-Max-Age", "86400")
}

func (b *Bridge) preflight(w http.ResponseWriter, r *http.Request) {
	cors(w, r)
	w.WriteHeader(http.StatusOK)
}

func (b *Bridge) serve(w http.ResponseWriter, r *http.Request) {
	cors(w, r)
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/grpc-web") {
		http.Error(w, "not grpc-web", http.StatusUnsupportedMediaType)
		return
	}
	method := chi.URLParam(r, "method")
	if !known[method] {
		writeError(w, codes.Unimplemented, "unknown method "+method)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, codes.Internal, "read body failed")
		return
	}
	if len(body) < 5 {
		writeError(w, codes.InvalidArgument, "body too short")
		return
	}
	// frame: 1 byte flag, 4 byte big-endian length, message
	n := binary.BigEndian.Uint32(body[1:5])
	if uint64(n)+5 > uint64(len(body)) {
		writeError(w, codes.InvalidArgument, "incomplete frame")
		return
	}
	payload := body[5 : 5+n]

	md := metadata.Pairs(appmw.ClientAddrKey, r.RemoteAddr)
	if vals := r.Header.Values("Authorization"); len(vals) > 0 {
		md.Set("authorization", vals...)
	}
	ctx := metadata.NewOutgoingContext(r.Context(), md)

	resp := &rpc.Raw{}
	err = b.conn.Invoke(ctx, rpc.FullMethod(method), &rpc.Raw{Data: payload}, resp, grpc.ForceCodec(rpc.Codec{}))
	if err != nil {
		st, _ := status.FromError(err)
		b.logger.Debug("grpc-web call failed", "method", method, "code", st.Code().String(), "message", st.Message())
		writeError(w, st.Code(), st.Message())
		return
	}
	writeSuccess(w, resp.Data)
}

var known = map[string]bool{
	rpc.MethodRegister:             true,
	rpc.MethodVerifyOTP:            true,
	rpc.MethodLogin:                true,
	rpc.MethodListConsultants:      true,
	rpc.MethodGetConsultant:        true,
	rpc.MethodBookAppointment:      true,
	rpc.MethodCancelAppointment:    true,
	rpc.MethodListAppointments:     true,
	rpc.MethodSetAppointmentStatus: true,
}

func frame(flag byte, data []byte) []byte {
	f := make([]byte, 5+len(data))
	f[0] = flag
	binary.BigEndian.PutUint32(f[1:5], uint32(len(data)))
	copy(f[5:], data)
	return f
}

func trailer(code codes.Code, msg string) []byte {
	t := fmt.Sprintf("grpc-status:%d\r\n", code)
	if msg != "" {
		t += "grpc-message:" + strings.NewReplacer("\r", " ", "\n", " ").Replace(msg) + "\r\n"
	}
	return frame(frameTrailer, []byte(t))
}

func writeError(w http.ResponseWriter, code codes.Code, msg string) {
	w.Header().Set("Content-Type", "application/grpc-web+proto")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(trailer(code, msg))
}

func writeSuccess(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/grpc-web+proto")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(frame(frameData, data))
	_, _ = w.Write(trailer(codes.OK, ""))
}
