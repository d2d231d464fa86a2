package rpc

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func commandAttr(verb string) attribute.KeyValue {
	return attribute.String("command", verb)
}

// Metrics wraps the otel instruments the server updates on every command
// and connection lifecycle event. Counts-only; a stdoutmetric exporter is
// wired in cmd/cubedb for local observability, grounded on the teacher's
// otel dependency set rather than its hand-rolled internal/rpc/metrics.go
// counters (see DESIGN.md).
type Metrics struct {
	commandsProcessed  metric.Int64Counter
	commandErrors      metric.Int64Counter
	activeSessions     metric.Int64UpDownCounter
	dictionaryOverflow metric.Int64Counter
}

// NewMetrics builds a Metrics instance from a meter, typically obtained
// from the MeterProvider that cmd/cubedb builds at startup.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	commandsProcessed, err := meter.Int64Counter("cubedb.commands.processed",
		metric.WithDescription("commands dispatched, by verb"))
	if err != nil {
		return nil, err
	}
	commandErrors, err := meter.Int64Counter("cubedb.commands.errors",
		metric.WithDescription("commands that returned a non-OK result code"))
	if err != nil {
		return nil, err
	}
	activeSessions, err := meter.Int64UpDownCounter("cubedb.sessions.active",
		metric.WithDescription("currently open client connections"))
	if err != nil {
		return nil, err
	}
	dictionaryOverflow, err := meter.Int64Counter("cubedb.dictionary.overflow",
		metric.WithDescription("inserts rejected because a column's dictionary is full"))
	if err != nil {
		return nil, err
	}
	return &Metrics{
		commandsProcessed:  commandsProcessed,
		commandErrors:      commandErrors,
		activeSessions:     activeSessions,
		dictionaryOverflow: dictionaryOverflow,
	}, nil
}

func (m *Metrics) recordCommand(ctx context.Context, verb string, code int) {
	if m == nil {
		return
	}
	attr := metric.WithAttributes(commandAttr(verb))
	m.commandsProcessed.Add(ctx, 1, attr)
	if code != 0 {
		m.commandErrors.Add(ctx, 1, attr)
		if code == -7 && verb == "INSERT" { // protocol.ErrActionFailed; INSERT's dictionary-full path
			m.dictionaryOverflow.Add(ctx, 1, attr)
		}
	}
}

func (m *Metrics) sessionOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeSessions.Add(ctx, 1)
}

func (m *Metrics) sessionClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeSessions.Add(ctx, -1)
}
