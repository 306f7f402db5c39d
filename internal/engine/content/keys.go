package content

import (
	"encoding/base32"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// keyEncoding renders random bytes in the 0-9a-v alphabet.
var keyEncoding = base32.HexEncoding.WithPadding(base32.NoPadding)

const keyLength = 5

var keys = struct {
	mu   sync.Mutex
	seen map[string]struct{}
}{seen: make(map[string]struct{})}

// GenerateKey returns a short random block key that was never returned
// before in this process and is never purely numeric.
func GenerateKey() string {
	keys.mu.Lock()
	defer keys.mu.Unlock()
	for {
		id := uuid.New()
		k := strings.ToLower(keyEncoding.EncodeToString(id[:4]))[:keyLength]
		if isNumeric(k) {
			continue
		}
		if _, dup := keys.seen[k]; dup {
			continue
		}
		keys.seen[k] = struct{}{}
		return k
	}
}

// ReserveKey marks key as used so GenerateKey never returns it.
func ReserveKey(key string) {
	keys.mu.Lock()
	keys.seen[key] = struct{}{}
	keys.mu.Unlock()
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
