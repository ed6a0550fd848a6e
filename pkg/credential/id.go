package credential

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/last-emo-boy/net-monitor/pkg/model"
)

// generateID produces an opaque cred_<16 hex> identifier, rejecting any
// collision against existing (vanishingly unlikely with a UUID source,
// but cheap to check).
func generateID(existing map[string]model.Credential) string {
	for {
		raw := strings.ReplaceAll(uuid.New().String(), "-", "")
		id := fmt.Sprintf("cred_%s", raw[:16])
		if _, taken := existing[id]; !taken {
			return id
		}
	}
}
