package health

import "context"

// CachePinger checks cache connectivity.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// DBPinger checks relational database connectivity.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
