// Package repl implements the master/replica role subsystem: master
// identity (replication id and offset) and the replica handshake driver.
package repl

import "context"

// Role is the capability set the server actor depends on at startup and
// for INFO replication reporting.
type Role interface {
	// Info returns "key:value" lines describing this role.
	Info() []string
	// Start readies the role. For a master this returns immediately; for
	// a replica it drives the handshake against the upstream and only
	// returns once it has succeeded or failed fatally.
	Start(ctx context.Context) error
}
