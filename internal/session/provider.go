package session

import (
	"context"
	"sync"
)

// Provider is the single access point to the process-wide session.
// The first Connect creates the client; later calls return the same one until Close.
type Provider struct {
	mu     sync.Mutex
	client *Client
}

// NewProvider returns an empty provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Connect returns the existing client, or creates one dialing url.
// opts are only applied when a new client is created.
func (p *Provider) Connect(ctx context.Context, url string, opts Options) *Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client
	}
	p.client = New(ctx, url, opts)
	return p.client
}

// Client returns the current client, or nil before Connect.
func (p *Provider) Client() *Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.client
}

// Close tears down the client, if any.
func (p *Provider) Close() error {
	p.mu.Lock()
	c := p.client
	p.client = nil
	p.mu.Unlock()

	if c == nil {
		return nil
	}
	return c.Close()
}
