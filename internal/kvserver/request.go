package kvserver

import (
	"github.com/flonle/memora/internal/command"
	"github.com/flonle/memora/internal/resp"
)

// Request is a command forwarded by a session to the actor, together
// with the one-shot channel the actor fulfills with exactly one reply.
// Reply is unbuffered and read exactly once by the originating session.
type Request struct {
	Cmd   command.Command
	Reply chan resp.Value
}
