package middleware

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"consult-scheduler/internal/rpc"
)

const staleAfter = 3 * time.Minute

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// ClientAddrKey carries the end client's address on calls relayed by the
// grpc-web bridge. It is only honoured from a loopback peer.
const ClientAddrKey = "x-client-addr"

// RateLimiter keeps one token bucket per client host.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	r       rate.Limit
	burst   int
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*client),
		r:       rate.Limit(rps),
		burst:   burst,
	}
}

// Run evicts idle peers every minute until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			rl.evict(now)
		}
	}
}

func (rl *RateLimiter) evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, c := range rl.clients {
		if now.Sub(c.seen) > staleAfter {
			delete(rl.clients, ip)
		}
	}
}

func (rl *RateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if c, ok := rl.clients[ip]; ok {
		c.seen = time.Now()
		return c.lim
	}
	l := rate.NewLimiter(rl.r, rl.burst)
	rl.clients[ip] = &client{lim: l, seen: time.Now()}
	return l
}

// methods that should be rate limited
var limited = map[string]bool{
	rpc.FullMethod(rpc.MethodRegister):  true,
	rpc.FullMethod(rpc.MethodVerifyOTP): true,
	rpc.FullMethod(rpc.MethodLogin):     true,
}

func RateLimit(rl *RateLimiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if !limited[info.FullMethod] {
			return next(ctx, req)
		}
		if !rl.get(ClientHost(ctx)).Allow() {
			return nil, status.Error(codes.ResourceExhausted, "too many requests")
		}
		return next(ctx, req)
	}
}

// ClientHost identifies the caller for rate limiting: the peer's host
// without port, or the relayed client address when the peer is loopback.
func ClientHost(ctx context.Context) string {
	host := "unknown"
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		host = hostOnly(p.Addr.String())
	}
	if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
		return host
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(ClientAddrKey); len(vals) > 0 && vals[0] != "" {
			return hostOnly(vals[0])
		}
	}
	return host
}

func hostOnly(addr string) string {
	if h, _, err := net.SplitHostPort(addr); err == nil {
		return h
	}
	return addr
}
