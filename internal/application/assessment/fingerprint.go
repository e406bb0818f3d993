package assessment

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/bryanwahyu/risknet/internal/application/resolver"
)

// Fingerprint hashes the resolved, normalized entity pair. Keying on the
// resolved pair rather than the raw body means field order, whitespace, and
// casing variants of the same request collide to the same cache entry.
// Directors are excluded: they change the graph, not the subject identity.
func Fingerprint(r *resolver.Resolved) string {
	h := sha256.New()
	h.Write([]byte("v1|"))
	if r.Person != nil {
		h.Write([]byte("person|" + string(r.Person.ID) + "|"))
	}
	if r.Company != nil {
		h.Write([]byte("company|" + string(r.Company.ID) + "|"))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
