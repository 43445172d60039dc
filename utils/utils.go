package utils

import (
	"sort"
	"strings"

	"github.com/gofrs/uuid"
)

// GenUuidFromStrings derives a name-based id from parts. The order of parts
// does not matter.
func GenUuidFromStrings(parts ...string) string {
	sorted := make([]string, len(parts))
	copy(sorted, parts)
	sort.Strings(sorted)
	return uuid.NewV3(uuid.Nil, strings.Join(sorted, "\x00")).String()
}
