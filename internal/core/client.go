package core

// Client is a chat participant as seen by the core layer.
type Client struct {
	ID       string
	Name     string
	Commands chan *Command
	Events   chan *Event
	Rooms    map[string]struct{}
}

// NewClient constructs a client with initialized channels.
func NewClient(id, name string) *Client {
	return &Client{
		ID:       id,
		Name:     name,
		Commands: make(chan *Command, 16),
		Events:   make(chan *Event, 64),
		Rooms:    make(map[string]struct{}),
	}
}

// DisplayName is the name shown to other clients, falling back to the id before registration.
func (c *Client) DisplayName() string {
	if c.Name == "" {
		return c.ID
	}
	return c.Name
}
