package logging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dumpNode struct {
	Name     string
	Tags     []string
	Next     *dumpNode
	internal int
}

// dumpedPaths dumps v through a routed logger and returns message by path.
func dumpedPaths(t *testing.T, v interface{}) map[string]string {
	t.Helper()
	tgt, sink := memoryTarget("mem")
	inst := startDetached(t, NewConfiguration("svc").AddTarget(tgt).AddRule(debugRule("mem")))

	Dump(inst.Logger("dump"), v)
	require.NoError(t, inst.Flush(context.Background(), time.Second).Err)

	out := map[string]string{}
	for _, m := range sink.messages() {
		var entry struct {
			Path    string `json:"path"`
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(m.Payload, &entry))
		out[entry.Path] = entry.Message
	}
	return out
}

func TestDump(t *testing.T) {
	t.Run("struct fields and slices", func(t *testing.T) {
		paths := dumpedPaths(t, dumpNode{Name: "a", Tags: []string{"x", "y"}, internal: 7})

		assert.Equal(t, "a", paths["value.Name"])
		assert.Equal(t, "y", paths["value.Tags[1]"])
		assert.Equal(t, "<nil>", paths["value.Next"])
		assert.NotContains(t, paths, "value.internal")
	})

	t.Run("cycles are cut", func(t *testing.T) {
		n := &dumpNode{Name: "loop"}
		n.Next = n
		paths := dumpedPaths(t, n)

		assert.Equal(t, "<circular reference>", paths["value.Next"])
	})

	t.Run("long slices are truncated", func(t *testing.T) {
		paths := dumpedPaths(t, make([]int, maxDumpElements+5))

		assert.Contains(t, paths, "value[9]")
		assert.NotContains(t, paths, "value[10]")
	})

	t.Run("nil", func(t *testing.T) {
		paths := dumpedPaths(t, nil)
		assert.Equal(t, "<nil>", paths["value"])
	})

	t.Run("nil logger", func(t *testing.T) {
		assert.NotPanics(t, func() { Dump(nil, 1) })
	})
}
