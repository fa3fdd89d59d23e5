package matcher

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/jamesainslie/go-stdesc/pointcloud"
)

const (
	serviceName          = "stdesc.Matcher"
	methodConfigure      = "/" + serviceName + "/Configure"
	methodProcessNewScan = "/" + serviceName + "/ProcessNewScan"

	// maxMessageSize bounds a single scan message. A dense scan is ~120k
	// points of 24 bytes each.
	maxMessageSize = 64 << 20
)

// RemoteOption configures a Remote.
type RemoteOption func(*remoteConfig)

type remoteConfig struct {
	timeout     time.Duration
	dialOptions []grpc.DialOption
}

// WithCallTimeout bounds each ProcessNewScan call (default: no limit beyond ctx).
func WithCallTimeout(d time.Duration) RemoteOption {
	return func(c *remoteConfig) {
		c.timeout = d
	}
}

// WithDialOptions appends gRPC dial options, e.g. a custom dialer.
func WithDialOptions(opts ...grpc.DialOption) RemoteOption {
	return func(c *remoteConfig) {
		c.dialOptions = append(c.dialOptions, opts...)
	}
}

// Remote is a Matcher backed by a detector service reached over gRPC.
type Remote struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// DialRemote connects to the detector at addr and configures it with params,
// which resets any map the service holds.
func DialRemote(ctx context.Context, addr string, params Params, opts ...RemoteOption) (*Remote, error) {
	var cfg remoteConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.CallContentSubtype(CodecName),
			grpc.MaxCallRecvMsgSize(maxMessageSize),
			grpc.MaxCallSendMsgSize(maxMessageSize),
		),
	}, cfg.dialOptions...)

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}

	r := &Remote{conn: conn, timeout: cfg.timeout}
	if err := r.conn.Invoke(ctx, methodConfigure, &configureRequest{Params: params}, &configureResponse{}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("configure rpc: %w", err)
	}
	return r, nil
}

// ProcessNewScan sends one scan to the detector.
func (r *Remote) ProcessNewScan(ctx context.Context, cloud pointcloud.Cloud, scanIndex int) (int, float64, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var resp scanResponse
	if err := r.conn.Invoke(ctx, methodProcessNewScan, &scanRequest{Index: scanIndex, Cloud: cloud}, &resp); err != nil {
		return 0, 0, fmt.Errorf("process scan rpc: %w", err)
	}
	return resp.Match, resp.Score, nil
}

// Close shuts down the gRPC connection.
func (r *Remote) Close() error {
	return r.conn.Close()
}
