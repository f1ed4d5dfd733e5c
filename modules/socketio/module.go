// Package socketio connects to a Socket.IO server, optionally emits an event
// and waits for a reply event.
//
// Arguments: url (required), namespace ("/" by default), on_event (required),
// emit_event, emit_data (or emit_input = true to send the threaded input),
// timeout (Go duration, 10s by default) and insecure_skip_verify.
//
// The result is an object holding the reply under response_data. A
// connection error or a timeout yields a nil result so the step is retried.
package socketio

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/chainrunner/internal/ctxlog"
	"github.com/specialistvlad/chainrunner/internal/ctyconv"
	"github.com/specialistvlad/chainrunner/internal/module"
	"github.com/specialistvlad/chainrunner/internal/registry"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Name is the identifier the module is registered under.
const Name = "socketio"

const defaultTimeout = 10 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct{}

// Exchange is one connect, emit and wait cycle.
type Exchange struct {
	URL                string
	Namespace          string
	OnEvent            string
	EmitEvent          string
	EmitData           any
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// opResult is a private struct to safely pass results through the done channel.
type opResult struct {
	value any
	err   error
}

// Run performs the exchange.
func (e *Exchange) Run(ctx context.Context) (module.Result, error) {
	logger := ctxlog.FromContext(ctx).With("url", e.URL, "onEvent", e.OnEvent, "emitEvent", e.EmitEvent)
	logger.Debug("Socket.IO exchange started")
	defer logger.Debug("Socket.IO exchange finished")

	var isConnected atomic.Bool

	done := make(chan opResult, 1)
	send := func(r opResult) {
		select {
		case done <- r:
		default:
		}
	}
	opCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	parsedURL, err := url.Parse(e.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if e.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(e.Namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Info("Successfully connected", "namespace", e.Namespace, "sid", io.Id())
		if e.EmitEvent != "" {
			jsonData, _ := json.Marshal(e.EmitData)
			logger.Info("Emitting event", "event", e.EmitEvent, "data", string(jsonData))
			io.Emit(e.EmitEvent, e.EmitData)
		}
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect error")
		if len(errs) > 0 {
			if cerr, ok := errs[0].(error); ok {
				err = cerr
			}
		}
		send(opResult{err: err})
	})

	io.On(types.EventName(e.OnEvent), func(data ...any) {
		var responseData any
		if len(data) > 0 {
			responseData = data[0]
		}
		send(opResult{value: map[string]any{"response_data": responseData}})
	})

	io.Connect()

	select {
	case <-opCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isConnected.Load() {
			logger.Warn("Timed out after connecting while waiting for event", "timeout", e.Timeout)
		} else {
			logger.Warn("Timed out while waiting for initial connection", "timeout", e.Timeout)
		}
		return nil, nil
	case res := <-done:
		if res.err != nil {
			logger.Warn("Socket.IO connection failed", "error", res.err)
			return nil, nil
		}
		return res.value, nil
	}
}

func newExchange(_ string, args module.Arguments) (any, error) {
	s := args.Settings
	ex := &Exchange{Timeout: defaultTimeout}

	var err error
	if ex.URL, err = s.StringArg("url", ""); err != nil {
		return nil, err
	}
	if ex.URL == "" {
		return nil, fmt.Errorf("argument \"url\" is required")
	}
	if ex.Namespace, err = s.StringArg("namespace", "/"); err != nil {
		return nil, err
	}
	if ex.OnEvent, err = s.StringArg("on_event", ""); err != nil {
		return nil, err
	}
	if ex.OnEvent == "" {
		return nil, fmt.Errorf("argument \"on_event\" is required")
	}
	if ex.EmitEvent, err = s.StringArg("emit_event", ""); err != nil {
		return nil, err
	}
	if ex.InsecureSkipVerify, err = s.BoolArg("insecure_skip_verify", false); err != nil {
		return nil, err
	}

	emitInput, err := s.BoolArg("emit_input", false)
	if err != nil {
		return nil, err
	}
	if emitInput {
		ex.EmitData = ctyconv.ForLogs(s.Input)
	} else if ex.EmitData, err = s.AnyArg("emit_data"); err != nil {
		return nil, err
	}

	timeout, err := s.StringArg("timeout", "")
	if err != nil {
		return nil, err
	}
	if timeout != "" {
		if ex.Timeout, err = time.ParseDuration(timeout); err != nil {
			return nil, fmt.Errorf("argument \"timeout\": %w", err)
		}
	}
	return ex, nil
}

// Register registers the module with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(Name, newExchange)
}
