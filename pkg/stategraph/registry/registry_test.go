package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoTool returns its "q" argument, standing in for a real capability.
func echoTool(ctx context.Context, args map[string]any) (any, error) {
	return args["q"], nil
}

func plugin(name, description string) Plugin {
	return Plugin{Name: name, Description: description, Tool: echoTool}
}

func TestRegister_AndGet(t *testing.T) {
	r := New()
	r.Register(plugin("search", "finds things"))

	p, ok := r.Get("search")
	require.True(t, ok)
	assert.Equal(t, "search", p.Name)
	assert.Equal(t, "finds things", p.Description)
	assert.True(t, r.Enabled("search"))
	assert.Equal(t, 1, r.Len())

	_, ok = r.Get("missing")
	assert.False(t, ok)
	assert.False(t, r.Enabled("missing"))
}

func TestRegister_EmptyName_Panics(t *testing.T) {
	r := New()
	assert.PanicsWithValue(t, "registry: plugin name cannot be empty", func() {
		r.Register(Plugin{Name: "", Tool: echoTool})
	})
}

func TestRegister_NilTool_Panics(t *testing.T) {
	r := New()
	assert.PanicsWithValue(t, "registry: plugin tool cannot be nil", func() {
		r.Register(Plugin{Name: "search"})
	})
}

// TestRegister_OverwriteKeepsPosition tests hot re-registration: the
// plugin data is replaced but its place in the ordering is not.
func TestRegister_OverwriteKeepsPosition(t *testing.T) {
	r := New()
	r.Register(plugin("search", "v1"))
	r.Register(plugin("calc", "does math"))
	r.Register(plugin("search", "v2"))

	assert.Equal(t, []string{"search", "calc"}, r.Names())
	assert.Equal(t, 2, r.Len())

	p, ok := r.Get("search")
	require.True(t, ok)
	assert.Equal(t, "v2", p.Description)
}

// TestRegister_OverwriteReenables tests that re-registering a disabled
// plugin turns it back on.
func TestRegister_OverwriteReenables(t *testing.T) {
	r := New()
	r.Register(plugin("search", "v1"))
	r.SetEnabled("search", false)

	r.Register(plugin("search", "v2"))
	assert.True(t, r.Enabled("search"))
}

func TestUnregister(t *testing.T) {
	r := New()
	r.Register(plugin("search", ""))
	r.Register(plugin("calc", ""))

	assert.True(t, r.Unregister("search"))
	assert.False(t, r.Unregister("search"))
	assert.Equal(t, []string{"calc"}, r.Names())

	_, ok := r.Get("search")
	assert.False(t, ok)
}

func TestSetEnabled(t *testing.T) {
	r := New()
	r.Register(plugin("search", ""))

	assert.True(t, r.SetEnabled("search", false))
	assert.False(t, r.Enabled("search"))

	assert.True(t, r.SetEnabled("search", true))
	assert.True(t, r.Enabled("search"))

	// probing an unknown name is not an error
	assert.False(t, r.SetEnabled("missing", true))
}

// TestEnabledTools_RegistrationOrder tests the derived tool set with a
// disabled plugin toggled back on.
func TestEnabledTools_RegistrationOrder(t *testing.T) {
	r := New()
	r.Register(plugin("search", ""))
	r.Register(plugin("calc", ""))
	r.SetEnabled("calc", false)

	names := func(tools []Plugin) []string {
		out := make([]string, len(tools))
		for i, p := range tools {
			out[i] = p.Name
		}
		return out
	}

	assert.Equal(t, []string{"search"}, names(r.EnabledTools()))

	r.SetEnabled("calc", true)
	assert.Equal(t, []string{"search", "calc"}, names(r.EnabledTools()))
}

// TestEnabledTools_Snapshot tests that the returned slice is detached
// from later registry changes.
func TestEnabledTools_Snapshot(t *testing.T) {
	r := New()
	r.Register(plugin("search", "original"))

	snapshot := r.EnabledTools()
	r.Register(plugin("search", "replaced"))
	r.Register(plugin("calc", ""))

	require.Len(t, snapshot, 1)
	assert.Equal(t, "original", snapshot[0].Description)
}

func TestDescriptionBlock(t *testing.T) {
	r := New()
	r.Register(plugin("search", "finds things on the web"))
	r.Register(plugin("calc", "evaluates arithmetic"))
	r.Register(plugin("hidden", "should not appear"))
	r.SetEnabled("hidden", false)

	want := "- search: finds things on the web\n- calc: evaluates arithmetic"
	assert.Equal(t, want, r.DescriptionBlock())
}

func TestDescriptionBlock_Empty(t *testing.T) {
	assert.Equal(t, "", New().DescriptionBlock())
}

// TestRegistry_ConcurrentAccess tests that mixed reads and writes from
// many goroutines don't race. Meaningful under -race.
func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := New()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("tool-%d", i)
			r.Register(plugin(name, "concurrent"))
			r.SetEnabled(name, i%2 == 0)
			r.Get(name)
			r.EnabledTools()
			r.DescriptionBlock()
			r.Names()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, r.Len())
}
