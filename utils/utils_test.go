package utils

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGenUuidFromStrings(t *testing.T) {
	id := GenUuidFromStrings("group", "alice")
	assert.Equal(t, id, GenUuidFromStrings("alice", "group"))
	assert.NotEqual(t, id, GenUuidFromStrings("group", "bob"))
	assert.NotEqual(t, GenUuidFromStrings("ab", "c"), GenUuidFromStrings("a", "bc"))

	parsed, err := uuid.FromString(id)
	assert.NoError(t, err)
	assert.Equal(t, byte(uuid.V3), parsed.Version())
}
