package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPartitionKeepsRawValueOfStaleFields(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	fresh := `{"name":"Bob","last_seen_ms":1699999990000}`
	old := `{"name":"Alice","last_seen_ms":1699999960000}`
	fields := map[string]string{
		"alice": old,
		"bob":   fresh,
		"carol": "not json",
	}

	active, stale := partition(fields, now, DefaultTTL)

	assert.Equal(t, []string{"bob"}, userIDs(active))
	assert.Equal(t, "Bob", active[0].DisplayName)
	assert.Equal(t, map[string]string{"alice": old, "carol": "not json"}, stale)
}
