package eventkey

import (
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var idPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}-\d{3}Z_[0-9a-z]{8}$`)

func TestEncodeDecode(t *testing.T) {
	key := Encode("demo", "2026-10-18T09-41-07-112Z_k3v9q0zt")
	assert.Equal(t, "demo:2026-10-18T09-41-07-112Z_k3v9q0zt", key)

	ns, id, ok := Decode(key)
	require.True(t, ok)
	assert.Equal(t, "demo", ns)
	assert.Equal(t, "2026-10-18T09-41-07-112Z_k3v9q0zt", id)
}

func TestDecode_SplitsAtFirstDelimiter(t *testing.T) {
	ns, id, ok := Decode("demo:a:b")
	require.True(t, ok)
	assert.Equal(t, "demo", ns)
	assert.Equal(t, "a:b", id)

	_, _, ok = Decode("no-delimiter")
	assert.False(t, ok)
}

func TestNamespace(t *testing.T) {
	assert.Equal(t, "demo", Namespace("demo:x"))
	assert.Equal(t, NoKey, Namespace("NO-KEY:x"))
	assert.Equal(t, "", Namespace(":x"))
	assert.Equal(t, "orphan", Namespace("orphan"))
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "demo:", Prefix("demo"))
}

func TestValidateNamespace(t *testing.T) {
	assert.NoError(t, ValidateNamespace("demo"))
	assert.NoError(t, ValidateNamespace(NoKey))
	assert.NoError(t, ValidateNamespace("acme.prod-1"))
	assert.ErrorIs(t, ValidateNamespace("a:b"), ErrInvalidNamespace)
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, NoKey, OrDefault(""))
	assert.Equal(t, "demo", OrDefault("demo"))
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2026, 10, 18, 9, 41, 7, 112_000_000, time.FixedZone("CEST", 2*3600))
	assert.Equal(t, "2026-10-18T07-41-07-112Z", Timestamp(ts))
}

func TestNewID_Format(t *testing.T) {
	id, err := NewID()
	require.NoError(t, err)
	assert.Regexp(t, idPattern, id)
	assert.NotContains(t, id, Delimiter)
}

func TestNewIDAt_SortsChronologically(t *testing.T) {
	base := time.Date(2026, 1, 1, 23, 59, 59, 998_000_000, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		id, err := NewIDAt(base.Add(time.Duration(i) * time.Millisecond))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	assert.True(t, sort.StringsAreSorted(ids), "ids should sort in generation order: %v", ids)
}

func TestNewID_ConcurrentUnique(t *testing.T) {
	const n = 10000

	ids := make([]string, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			id, err := NewID()
			if err == nil {
				ids[i] = Encode("demo", id)
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, n)
	for _, key := range ids {
		require.NotEmpty(t, key)
		_, dup := seen[key]
		require.False(t, dup, "duplicate storage key %s", key)
		seen[key] = struct{}{}
	}
	assert.Len(t, seen, n)
}
