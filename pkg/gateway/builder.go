package gateway

import (
	"fmt"

	"relaybot/pkg/api"
	"relaybot/pkg/monitor"
)

// GatewayBuilder provides a fluent builder for constructing and starting a
// GatewayManager with all its dependencies.
//
// Channels and the handler are pre-built and injected as instances — the
// Builder simply assembles and starts them.
type GatewayBuilder struct {
	gw       *GatewayManager
	monitor  monitor.Monitor
	channels []api.Channel
	handler  api.MessageProcessor
}

// NewGatewayBuilder creates a fresh GatewayBuilder instance and allocates
// an internal GatewayManager to be configured.
func NewGatewayBuilder() *GatewayBuilder {
	return &GatewayBuilder{
		gw: NewGatewayManager(),
	}
}

// WithMonitor injects a monitoring implementation into the builder.
// This monitor will be started automatically during the Build() process.
func (b *GatewayBuilder) WithMonitor(m monitor.Monitor) *GatewayBuilder {
	b.monitor = m
	return b
}

// WithChannel adds pre-built channel instances to the gateway.
func (b *GatewayBuilder) WithChannel(channels ...api.Channel) *GatewayBuilder {
	b.channels = append(b.channels, channels...)
	return b
}

// WithHandler injects the core message handler. If the handler implements
// api.ResponderAware, the gateway is wired in as its responder during Build.
func (b *GatewayBuilder) WithHandler(h api.MessageProcessor) *GatewayBuilder {
	b.handler = h
	return b
}

// Build finalizes the configuration, registers all channels, wires the
// handler, and starts everything. Returns the operational GatewayManager
// or an error if any stage fails.
func (b *GatewayBuilder) Build() (*GatewayManager, error) {
	// 1. Initialize and start the monitoring service
	if b.monitor != nil {
		b.gw.SetMonitor(b.monitor)
		if err := b.monitor.Start(); err != nil {
			return nil, fmt.Errorf("failed to start monitor: %w", err)
		}
	}

	// 2. Register all pre-built channels
	for _, c := range b.channels {
		b.gw.Register(c)
	}

	// 3. Establish the core message handler
	if b.handler != nil {
		if aware, ok := b.handler.(api.ResponderAware); ok {
			aware.SetResponder(b.gw)
		}
		b.gw.SetMessageHandler(b.handler)
	}

	// 4. Start all registered channels
	if err := b.gw.StartAll(); err != nil {
		return nil, fmt.Errorf("failed to start channels: %w", err)
	}

	return b.gw, nil
}
