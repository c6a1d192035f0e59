// Package dispatch submits generated scripts to a remote estimation worker
// over socket.io and waits for the fitted result container.
package dispatch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/vk/isoflux/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// ErrTimeout is returned when the worker does not connect or answer in time.
var ErrTimeout = errors.New("dispatch timed out")

// Event names of the worker protocol.
const (
	EventEstimate = "estimate"
	EventResult   = "result"
	EventError    = "error"
)

const (
	DefaultConnectTimeout = 15 * time.Second
	DefaultRequestTimeout = 30 * time.Minute
)

// Config holds the worker endpoint settings.
type Config struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
	RequestTimeout     time.Duration
}

// Client is a connected socket.io session with an estimation worker.
type Client struct {
	// mu serializes Estimate calls; their listeners share event names.
	mu             sync.Mutex
	io             *socket.Socket
	requestTimeout time.Duration
	logger         *slog.Logger
}

// Dial connects to the worker and blocks until the connection is
// established, refused, or the connect timeout elapses.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("component", "dispatch", "url", cfg.URL)
	logger.Info("Connecting to estimation worker...")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("worker URL %q must be absolute", cfg.URL)
	}
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "/"
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to estimation worker", "sid", io.Id())
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Debug("Connect error event fired", "error", err)
		select {
		case connectChan <- err:
		default:
		}
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &Client{io: io, requestTimeout: requestTimeout, logger: logger}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(connectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("%w after %v waiting for socket.io connection", ErrTimeout, connectTimeout)
	}
}

// Estimate submits a script and waits for the worker's result container.
func (c *Client) Estimate(ctx context.Context, req Request) (*Response, error) {
	if !c.io.Connected() {
		return nil, fmt.Errorf("socket.io client is not connected")
	}
	logger := c.logger.With("sid", c.io.Id(), "simulation_id", req.SimulationID)

	c.mu.Lock()
	defer c.mu.Unlock()

	opCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	done, stop := await(c.io.EventEmitter, req.SimulationID, logger)
	defer stop()

	logger.Info("Submitting script", "bytes", len(req.Script))
	c.io.Emit(EventEstimate, req.payload())

	select {
	case <-opCtx.Done():
		if errors.Is(opCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %v waiting for event '%s'", ErrTimeout, c.requestTimeout, EventResult)
		}
		return nil, opCtx.Err()
	case o := <-done:
		if o.err != nil {
			return nil, o.err
		}
		logger.Info("Received result container", "format", o.resp.Format, "bytes", len(o.resp.Container))
		return o.resp, nil
	}
}

type outcome struct {
	resp *Response
	err  error
}

// await registers one-shot result and error listeners on em. The returned
// stop func removes whichever listener did not fire.
func await(em types.EventEmitter, simulationID string, logger *slog.Logger) (<-chan outcome, func()) {
	done := make(chan outcome, 2)
	send := func(o outcome) {
		select {
		case done <- o:
		default:
		}
	}

	onResult := func(data ...any) {
		logger.Debug("Result event received")
		resp, err := decodeResponse(data)
		if err == nil && resp.SimulationID != "" && resp.SimulationID != simulationID {
			err = fmt.Errorf("worker answered for simulation %q", resp.SimulationID)
		}
		send(outcome{resp: resp, err: err})
	}
	onError := func(data ...any) {
		send(outcome{err: decodeWorkerError(data)})
	}

	em.Once(types.EventName(EventResult), onResult)
	em.Once(types.EventName(EventError), onError)
	return done, func() {
		em.RemoveListener(types.EventName(EventResult), onResult)
		em.RemoveListener(types.EventName(EventError), onError)
	}
}

// Close disconnects from the worker.
func (c *Client) Close() error {
	c.logger.Debug("Disconnecting from estimation worker", "sid", c.io.Id())
	c.io.Disconnect()
	return nil
}
