// Package socketio provides the "socketio" plugin, which reports a build
// summary to a Socket.IO server once the assets have been written.
package socketio

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/packgrid/internal/ctxlog"
	"github.com/specialistvlad/packgrid/internal/hooks"
	"github.com/specialistvlad/packgrid/internal/model"
	"github.com/specialistvlad/packgrid/internal/registry"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Options defines the arguments of the socketio plugin.
type Options struct {
	URL                string        `pg:"url"`
	Namespace          string        `pg:"namespace"`
	Event              string        `pg:"event"`
	AckEvent           string        `pg:"ack_event"`
	Timeout            time.Duration `pg:"timeout"`
	InsecureSkipVerify bool          `pg:"insecure_skip_verify"`
	Optional           bool          `pg:"optional"`
}

// Report is the payload emitted to the server.
type Report struct {
	Stats  model.Stats `json:"stats"`
	Assets []string    `json:"assets"`
}

// Plugin notifies a Socket.IO server on each subscribed event.
type Plugin struct {
	env     registry.PluginEnv
	opts    *Options
	baseURL string
	path    string
}

// New validates opts and creates the plugin.
func New(ctx context.Context, env registry.PluginEnv, opts *Options) (*Plugin, error) {
	if opts.URL == "" {
		return nil, errors.New("url is required")
	}
	parsed, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("url %q must be absolute", opts.URL)
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", opts.Timeout)
	}
	path := parsed.Path
	if path == "" || path == "/" {
		path = "/socket.io/"
	}
	return &Plugin{
		env:     env,
		opts:    opts,
		baseURL: fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host),
		path:    path,
	}, nil
}

// Apply implements hooks.Plugin.
func (p *Plugin) Apply(r hooks.Registrar) error {
	for _, event := range p.env.Events {
		r.Register(event, hooks.AsyncCallback(p.env.Name, p.notify))
	}
	return nil
}

func (p *Plugin) notify(ctx context.Context, payload any, done hooks.Done) {
	comp, ok := payload.(*model.Compilation)
	if !ok {
		done(fmt.Errorf("unexpected payload %T", payload))
		return
	}
	logger := ctxlog.FromContext(ctx).With("url", p.opts.URL, "socketEvent", p.opts.Event)
	report := Report{Stats: comp.Stats(), Assets: comp.AssetNames()}

	go func() {
		err := p.send(ctx, report)
		if err != nil && p.opts.Optional {
			logger.Warn("Build report not delivered.", "error", err)
			err = nil
		}
		done(err)
	}()
}

type result struct {
	err error
}

func (p *Plugin) send(ctx context.Context, report Report) error {
	logger := ctxlog.FromContext(ctx).With("url", p.opts.URL)
	var isConnected atomic.Bool

	opCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	opts := socket.DefaultOptions()
	opts.SetPath(p.path)
	if p.opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(p.baseURL, opts)
	io := manager.Socket(p.opts.Namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	resCh := make(chan result, 2)
	io.Once(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Debug("Connected", "namespace", p.opts.Namespace, "sid", io.Id())
		io.Emit(p.opts.Event, report)
		logger.Info("Build report sent.", "event", p.opts.Event, "modules", report.Stats.Modules, "assets", len(report.Assets))
		if p.opts.AckEvent == "" {
			resCh <- result{}
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connection refused")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		resCh <- result{err: fmt.Errorf("failed to connect: %w", err)}
	})
	if p.opts.AckEvent != "" {
		io.Once(types.EventName(p.opts.AckEvent), func(...any) {
			logger.Debug("Build report acknowledged.", "event", p.opts.AckEvent)
			resCh <- result{}
		})
	}

	io.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return fmt.Errorf("timed out after connecting while waiting for event %q", p.opts.AckEvent)
		}
		return errors.New("timed out while waiting for initial connection")
	case res := <-resCh:
		return res.err
	}
}

// Register registers the plugin with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPlugin("socketio", &registry.RegisteredPlugin{
		Events: []string{"afterEmit"},
		NewOptions: func() any {
			return &Options{Namespace: "/", Event: "build", Timeout: 10 * time.Second}
		},
		New: func(ctx context.Context, env registry.PluginEnv, options any) (hooks.Plugin, error) {
			return New(ctx, env, options.(*Options))
		},
	})
}
