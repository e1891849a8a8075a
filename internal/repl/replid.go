package repl

import "crypto/rand"

const replicationIDLength = 40

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// newReplicationID draws 40 random ASCII alphanumeric characters,
// uniformly, for a fresh master's identity.
func newReplicationID() string {
	// Random bytes at or above maxUnbiased are redrawn so that the modulo
	// below does not favour the first characters of alphanumeric.
	const maxUnbiased = 256 - 256%len(alphanumeric)
	buf := make([]byte, 0, replicationIDLength)
	var b [1]byte
	for len(buf) < replicationIDLength {
		if _, err := rand.Read(b[:]); err != nil {
			panic(err)
		}
		if int(b[0]) >= maxUnbiased {
			continue
		}
		buf = append(buf, alphanumeric[int(b[0])%len(alphanumeric)])
	}
	return string(buf)
}
