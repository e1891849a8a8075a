package repl

import (
	"context"
	"strconv"
)

// Master is the role taken by a server with no upstream. It draws a
// fresh replication id at construction, stable for the process lifetime.
type Master struct {
	id     string
	offset int64
}

// NewMaster constructs a Master with a freshly generated replication id
// and a zero replication offset.
func NewMaster() *Master {
	return &Master{id: newReplicationID(), offset: 0}
}

func (m *Master) Info() []string {
	return []string{
		"role:master",
		"master_replid:" + m.id,
		"master_repl_offset:" + strconv.FormatInt(m.offset, 10),
	}
}

// Start is immediate success: a master has nothing to synchronize with
// before it can serve requests.
func (m *Master) Start(ctx context.Context) error {
	return nil
}
