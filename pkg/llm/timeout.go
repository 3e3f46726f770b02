package llm

import (
	"context"
	"time"
)

// timeoutClient bounds every completion with a deadline. A timed-out call
// surfaces as a propagated error; there are no retries on this path.
type timeoutClient struct {
	inner   ChatClient
	timeout time.Duration
}

// NewTimeoutClient wraps a ChatClient with a per-call timeout.
// A non-positive timeout returns the client unchanged.
func NewTimeoutClient(inner ChatClient, timeout time.Duration) ChatClient {
	if timeout <= 0 {
		return inner
	}
	return &timeoutClient{inner: inner, timeout: timeout}
}

var _ ChatClient = (*timeoutClient)(nil)

func (c *timeoutClient) CreateCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.inner.CreateCompletion(ctx, req)
}

func (c *timeoutClient) GetModel() string {
	return c.inner.GetModel()
}
