package schema_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/yamlfix/pkg/schema"
)

func TestBuiltinParsers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		atomic *schema.Atomic
		text   string
		ok     bool
	}{
		{schema.String, "anything", true},
		{schema.Int, "42", true},
		{schema.Int, "0x1F", true},
		{schema.Int, "1_000", true},
		{schema.Int, "notanumber", false},
		{schema.Float, "3.5", true},
		{schema.Float, ".inf", true},
		{schema.Float, "abc", false},
		{schema.Bool, "true", true},
		{schema.Bool, "True", false},
		{schema.Bool, "maybe", false},
		{schema.Duration, "1m30s", true},
		{schema.Duration, "90", false},
		{schema.Decimal, "12.3400", true},
		{schema.Decimal, "12,34", false},
		{schema.UUID, "123e4567-e89b-12d3-a456-426614174000", true},
		{schema.UUID, "not-a-uuid", false},
	}

	for _, tt := range tests {
		t.Run(tt.atomic.Name+"/"+tt.text, func(t *testing.T) {
			t.Parallel()

			_, err := tt.atomic.Parse(tt.text)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			var verr *schema.ValueError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Message, tt.text)
		})
	}
}

func TestBoolSuggestsReplacement(t *testing.T) {
	t.Parallel()

	_, err := schema.Bool.Parse("TRUE")
	var verr *schema.ValueError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "true", verr.Replacement)
}

func TestEnum(t *testing.T) {
	t.Parallel()

	level := schema.Enum("Level", "debug", "info", "warn")

	v, err := level.Parse("info")
	require.NoError(t, err)
	assert.Equal(t, "info", v)

	_, err = level.Parse("INFO")
	var verr *schema.ValueError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "info", verr.Replacement)

	_, err = level.Parse("trace")
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, verr.Replacement)
	assert.Contains(t, verr.Message, "debug, info, warn")
}

func TestTypeIdentity(t *testing.T) {
	t.Parallel()

	m := &schema.Map{Key: schema.String, Value: &schema.Sequence{Element: schema.Int}}
	assert.Equal(t, "map[string][]int", m.ID())
	assert.Equal(t, "Map<string, List<int>>", m.String())

	bean := schema.NewBean("Server",
		&schema.Property{Name: "port", Type: schema.Int},
		&schema.Property{Name: "host", Type: schema.String},
	)
	assert.Equal(t, []string{"host", "port"}, bean.PropertyNames())
	_, ok := bean.Property("port")
	assert.True(t, ok)
}

func TestHierarchy(t *testing.T) {
	t.Parallel()

	direct := map[string][]string{
		"Port":      {"int"},
		"AdminPort": {"Port"},
		"Loop":      {"Loop2"},
		"Loop2":     {"Loop"},
	}
	calls := 0
	h := schema.NewHierarchy(func(id string) []string {
		calls++
		return direct[id]
	})

	assert.Equal(t, []string{"AdminPort", "Port", "int"}, h.Closure("AdminPort"))
	before := calls
	assert.Equal(t, []string{"AdminPort", "Port", "int"}, h.Closure("AdminPort"))
	assert.Equal(t, before, calls, "closure is memoized")

	assert.Equal(t, []string{"Loop", "Loop2"}, h.Closure("Loop"))
	assert.True(t, h.IsSubtype("AdminPort", "int"))
	assert.False(t, h.IsSubtype("int", "Port"))
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	h := schema.NewHierarchy(func(id string) []string {
		return map[string][]string{"Port": {"int"}, "AdminPort": {"Port"}}[id]
	})
	r := schema.NewRegistry[string](h)
	r.RegisterInheriting("int", "int-parser")
	r.RegisterExact("Port", "port-only")

	got, ok := r.Lookup("Port")
	require.True(t, ok)
	assert.Equal(t, "port-only", got)

	got, ok = r.Lookup("AdminPort")
	require.True(t, ok)
	assert.Equal(t, "int-parser", got, "exact registrations are not inherited")

	_, ok = r.Lookup("string")
	assert.False(t, ok)
}

const appSchema = `
name: app-config
documents: {min: 1, max: 1}
top: Root
types:
  Port: {kind: atomic, inherits: int, expr: "value > 0 && value < 65536"}
  AdminPort: {kind: atomic, inherits: Port}
  Level: {kind: atomic, values: [debug, info]}
  Base:
    kind: bean
    properties:
      name: {type: string, required: true}
  Root:
    kind: bean
    inherits: Base
    properties:
      server: {type: Server, required: true}
      old-port: {type: Port, deprecated: true, replacement: server.port}
      level: {type: Level}
      children: {type: "[]Root"}
  Server:
    kind: bean
    properties:
      port: {type: Port}
      admin: {type: AdminPort}
      tags: {type: "[]string"}
      labels: {type: "map[string]string"}
`

func TestLoad(t *testing.T) {
	t.Parallel()

	s, err := schema.Load([]byte(appSchema))
	require.NoError(t, err)
	assert.Equal(t, "app-config", s.Name)
	assert.Equal(t, 1, s.MaxDocuments)

	root, ok := s.Top.(*schema.Bean)
	require.True(t, ok)
	assert.Equal(t, []string{"children", "level", "name", "old-port", "server"}, root.PropertyNames())

	oldPort, _ := root.Property("old-port")
	assert.True(t, oldPort.Deprecated)
	assert.Equal(t, "server.port", oldPort.Replacement)

	children, _ := root.Property("children")
	assert.Same(t, root, children.Type.(*schema.Sequence).Element)

	serverType, _ := root.Property("server")
	server := serverType.Type.(*schema.Bean)
	labels, _ := server.Property("labels")
	assert.Equal(t, "map[string]string", labels.Type.ID())

	admin, _ := server.Property("admin")
	adminType := admin.Type.(*schema.Atomic)
	_, err = adminType.Parse("8080")
	require.NoError(t, err)
	_, err = adminType.Parse("70000")
	require.Error(t, err, "constraint inherited from Port")
	_, err = adminType.Parse("eighty")
	require.Error(t, err)

	level, _ := s.Lookup("Level")
	_, err = level.(*schema.Atomic).Parse("Debug")
	var verr *schema.ValueError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "debug", verr.Replacement)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{"missing top", "types: {}\n"},
		{"unknown top", "top: Nope\n"},
		{"unknown field", "top: string\nbogus: 1\n"},
		{"unknown property type", "top: R\ntypes:\n  R: {kind: bean, properties: {a: {type: Missing}}}\n"},
		{"bad expr", "top: P\ntypes:\n  P: {inherits: int, expr: 'value >'}\n"},
		{"cycle", "top: A\ntypes:\n  A: {inherits: B}\n  B: {inherits: A}\n"},
		{"bad kind", "top: A\ntypes:\n  A: {kind: blob}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := schema.Load([]byte(tt.text))
			var le *schema.LoadError
			require.ErrorAs(t, err, &le)
		})
	}

	_, err := schema.Load([]byte("top: Nope\n"))
	assert.True(t, errors.Is(err, schema.ErrUnknownType))
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := schema.LoadFile("/nonexistent/schema.yml")
	var le *schema.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "/nonexistent/schema.yml", le.Path)
}
