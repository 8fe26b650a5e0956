// internal/gateway/client.go
package gateway

import "context"

// Client is the outbound half of the messaging gateway. One call submits one
// templated message; the opaque returned id is the join key for the status
// callbacks that arrive later. Constructed once at bootstrap and injected,
// never a lazily-built global.
type Client interface {
	// Configured reports whether credentials and sender identity are set.
	// Checked once per batch so a misconfigured gateway fails the batch
	// before any per-recipient work.
	Configured() error

	// SendTemplate submits one message built from a pre-approved template
	// and its ordered substitution variables, returning the gateway
	// message id.
	SendTemplate(ctx context.Context, to, templateID string, vars map[string]string) (string, error)
}
