package llm

// ChatCompleter exports chatCompleter for mocks.
type ChatCompleter = chatCompleter

// NewTestClient creates a Client over a mock chat completer.
func NewTestClient(cc chatCompleter, provider Provider, opts ...Option) *Client {
	return newClient(cc, provider, opts...)
}

// BaseURL exposes the resolved endpoint.
func (c *Client) BaseURL() string { return c.baseURL }
