// Package gateway is the single user-facing entry point: one persistent
// connection per client, newline-delimited JSON envelopes in, status,
// result and error events out. The gateway only relays; it holds no
// durable state and resolves a fresh specialist instance per envelope.
package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/jmbish04/lightbulb-aquarium/internal/fault"
	"github.com/jmbish04/lightbulb-aquarium/internal/observability"
	"github.com/jmbish04/lightbulb-aquarium/internal/specialist"
)

// maxEnvelopeBytes bounds a single inbound line.
const maxEnvelopeBytes = 1 << 20

// builtinSpecialist addresses the gateway's own tools rather than a
// registered specialist.
const builtinSpecialist = "gateway"

// Gateway accepts client connections and dispatches envelopes.
type Gateway struct {
	logger   *slog.Logger
	registry *specialist.Registry
}

// New creates a gateway over the given registry.
func New(registry *specialist.Registry, logger *slog.Logger) *Gateway {
	return &Gateway{logger: logger, registry: registry}
}

// Serve accepts connections until the listener closes or ctx is done.
func (g *Gateway) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	g.logger.Info("gateway listening", "addr", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go g.HandleConn(ctx, conn)
	}
}

// HandleConn relays envelopes for one client connection. Dispatched
// work is tied to the server context, not the connection: a client that
// hangs up does not cancel in-flight specialist work.
func (g *Gateway) HandleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	g.logger.Info("client connected", "remote", remote)

	w := &connWriter{enc: json.NewEncoder(conn)}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), maxEnvelopeBytes)

	var wg sync.WaitGroup
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var env Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			// Unparseable top-level input ends the connection.
			g.logger.Warn("unparseable envelope, closing connection", "remote", remote, "error", err)
			_ = w.write(errorEvent(Envelope{}, fault.Wrap(fault.KindValidation, err, "unparseable envelope")))
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			g.dispatch(ctx, w, env)
		}()
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		g.logger.Debug("connection read ended", "remote", remote, "error", err)
	}

	wg.Wait()
	g.logger.Info("client disconnected", "remote", remote)
}

// dispatch resolves and invokes one envelope, emitting exactly one
// terminal event.
func (g *Gateway) dispatch(ctx context.Context, w *connWriter, env Envelope) {
	if env.Specialist == "" || env.Tool == "" {
		err := fault.New(fault.KindValidation, "envelope requires specialist and tool")
		observability.RecordInvocation(env.Specialist, env.Tool, EventError)
		_ = w.write(errorEvent(env, err))
		return
	}

	if env.Specialist == builtinSpecialist {
		g.dispatchBuiltin(w, env)
		return
	}

	// Fresh instance per invocation: no state shared across calls.
	sp, err := g.registry.Resolve(env.Specialist)
	if err != nil {
		observability.RecordInvocation(env.Specialist, env.Tool, EventError)
		_ = w.write(errorEvent(env, err))
		return
	}

	emit := func(message string) {
		_ = w.write(statusEvent(env, message))
	}

	result, err := sp.Invoke(ctx, env.Tool, specialist.Params(env.Params), emit)
	if err != nil {
		g.logger.Warn("invocation failed",
			"specialist", env.Specialist,
			"tool", env.Tool,
			"fault", string(fault.KindOf(err)),
			"error", err)
		observability.RecordInvocation(env.Specialist, env.Tool, EventError)
		_ = w.write(errorEvent(env, err))
		return
	}

	observability.RecordInvocation(env.Specialist, env.Tool, EventResult)
	_ = w.write(resultEvent(env, result))
}

// dispatchBuiltin serves tools the gateway answers itself. Today that
// is only suggest, which routes a task description to the specialist
// best suited to it.
func (g *Gateway) dispatchBuiltin(w *connWriter, env Envelope) {
	if env.Tool != "suggest" {
		err := fault.New(fault.KindConfiguration, "gateway has no tool %q", env.Tool)
		observability.RecordInvocation(env.Specialist, env.Tool, EventError)
		_ = w.write(errorEvent(env, err))
		return
	}

	params := specialist.Params(env.Params)
	title, err := params.String("title")
	if err != nil {
		observability.RecordInvocation(env.Specialist, env.Tool, EventError)
		_ = w.write(errorEvent(env, err))
		return
	}
	description := params.OptionalString("description", "")

	name := specialist.Suggest(title, description)
	observability.RecordInvocation(env.Specialist, env.Tool, EventResult)
	_ = w.write(resultEvent(env, map[string]any{"specialist": name}))
}

// connWriter serializes event writes from concurrent dispatches.
type connWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func (w *connWriter) write(ev Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(ev)
}
