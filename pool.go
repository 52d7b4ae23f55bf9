package mysqlnative

import "context"

// Pool is the thin, reference-counted connection-pooling collaborator
// spec.md §1 and §5 describe as an external concern: "a thin
// reference-counted wrapper returning connections; expressed only as an
// interface." This package does not implement one — only the shape a pool
// built on top of Connection needs, reduced from
// DaKeiser-vitess/go/pools/resource_pool.go's Resource/Factory split to the
// two methods spec.md §5 actually asks for: an exclusive lease, and
// tolerance of a connection that reports itself killed.
type Pool interface {
	// Get returns a leased Connection. Implementations must discard and
	// replace any Connection that reports Closed() on lease, per spec.md
	// §5: "The pool must tolerate Connections in a killed state."
	Get(ctx context.Context) (*Connection, error)

	// Put returns a Connection to the pool. Implementations should check
	// Closed() before returning it to the idle set.
	Put(conn *Connection)

	// Close shuts the pool down, closing every idle Connection it holds.
	Close()
}

// PoolFactory constructs a fresh Connection for a Pool to hand out,
// mirroring DaKeiser-vitess/go/pools/resource_pool.go's Factory type.
type PoolFactory func(ctx context.Context) (*Connection, error)
