package output

import (
	"context"

	"signup-agent/internal/domain/entity"
)

// ExecContext is one isolated, loaded instance of a target page plus its
// automation agent. Send carries the action-tagged command protocol; a page
// reporting "loaded" does not guarantee the agent answers, which is what the
// readiness handshake probes for.
type ExecContext interface {
	Handle() string
	Send(ctx context.Context, cmd entity.Command) (entity.Response, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close()
}

// ContextFactory opens execution contexts. One factory owns one browser
// process; contexts are cheap, the factory is not.
type ContextFactory interface {
	Open(ctx context.Context, url string) (ExecContext, error)
	Close()
}
