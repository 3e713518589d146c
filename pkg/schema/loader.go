package schema

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type kinds accepted in definition files.
const (
	KindAtomic   = "atomic"
	KindBean     = "bean"
	KindMap      = "map"
	KindSequence = "sequence"
)

// ErrUnknownType is returned when a definition refers to an undeclared type.
var ErrUnknownType = errors.New("unknown type")

// LoadError wraps a failure to load a schema definition file.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return "load schema: " + e.Err.Error()
	}
	return fmt.Sprintf("load schema %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

type definitionFile struct {
	Name      string                    `yaml:"name"`
	Top       string                    `yaml:"top"`
	Documents *documentBounds           `yaml:"documents"`
	Types     map[string]typeDefinition `yaml:"types"`
}

type documentBounds struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

type typeDefinition struct {
	Kind        string                        `yaml:"kind"`
	Inherits    string                        `yaml:"inherits"`
	Description string                        `yaml:"description"`
	Values      []string                      `yaml:"values"`
	Expr        string                        `yaml:"expr"`
	Key         string                        `yaml:"key"`
	Value       string                        `yaml:"value"`
	Element     string                        `yaml:"element"`
	Properties  map[string]propertyDefinition `yaml:"properties"`
}

type propertyDefinition struct {
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
	Deprecated  bool   `yaml:"deprecated"`
	Message     string `yaml:"message"`
	Replacement string `yaml:"replacement"`
}

// LoadFile reads and compiles a schema definition file.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	s, err := Load(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	return s, nil
}

// Load compiles a schema definition. Unknown fields are rejected.
func Load(data []byte) (*Schema, error) {
	var def definitionFile
	if err := yaml.UnmarshalWithOptions(data, &def, yaml.Strict()); err != nil {
		return nil, &LoadError{Err: errors.New(yaml.FormatError(err, false, true))}
	}

	if def.Top == "" {
		return nil, &LoadError{Err: errors.New("missing 'top' type")}
	}

	l := newLoader(def.Types)
	top, err := l.resolve(def.Top)
	if err != nil {
		return nil, &LoadError{Err: err}
	}

	for _, name := range sortedKeys(def.Types) {
		if _, err := l.resolve(name); err != nil {
			return nil, &LoadError{Err: err}
		}
	}

	s := &Schema{Name: def.Name, Top: top, Types: l.named}
	if def.Documents != nil {
		s.MinDocuments = def.Documents.Min
		s.MaxDocuments = def.Documents.Max
	}
	return s, nil
}

type loader struct {
	defs      map[string]typeDefinition
	hierarchy *Hierarchy
	parsers   *Registry[ValueParser]
	named     map[string]Type
	visiting  map[string]bool
}

func newLoader(defs map[string]typeDefinition) *loader {
	h := NewHierarchy(func(id string) []string {
		if def, ok := defs[id]; ok && def.Inherits != "" {
			return []string{def.Inherits}
		}
		return nil
	})

	parsers := NewRegistry[ValueParser](h)
	named := make(map[string]Type)
	for name, atomic := range Builtins() {
		parsers.RegisterInheriting(name, atomic.Parser)
		named[name] = atomic
	}

	return &loader{
		defs:      defs,
		hierarchy: h,
		parsers:   parsers,
		named:     named,
		visiting:  make(map[string]bool),
	}
}

// resolve turns a type reference such as "Server", "[]string" or
// "map[string]Port" into a Type.
func (l *loader) resolve(ref string) (Type, error) {
	ref = strings.TrimSpace(ref)

	switch {
	case strings.HasPrefix(ref, "[]"):
		elem, err := l.resolve(ref[2:])
		if err != nil {
			return nil, err
		}
		return &Sequence{Element: elem}, nil

	case strings.HasPrefix(ref, "map["):
		end := strings.IndexByte(ref, ']')
		if end < 0 {
			return nil, fmt.Errorf("malformed map type %q", ref)
		}
		key, err := l.resolve(ref[4:end])
		if err != nil {
			return nil, err
		}
		value, err := l.resolve(ref[end+1:])
		if err != nil {
			return nil, err
		}
		return &Map{Key: key, Value: value}, nil
	}

	if t, ok := l.named[ref]; ok {
		return t, nil
	}
	def, ok := l.defs[ref]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, ref)
	}
	if l.visiting[ref] {
		return nil, fmt.Errorf("type %q inherits from itself", ref)
	}
	l.visiting[ref] = true
	defer delete(l.visiting, ref)

	switch def.Kind {
	case KindBean:
		return l.bean(ref)
	case KindAtomic, "":
		return l.atomic(ref, def)
	case KindSequence:
		t, err := l.resolve("[]" + def.Element)
		if err == nil {
			l.named[ref] = t
		}
		return t, err
	case KindMap:
		t, err := l.resolve("map[" + def.Key + "]" + def.Value)
		if err == nil {
			l.named[ref] = t
		}
		return t, err
	default:
		return nil, fmt.Errorf("type %q has unknown kind %q", ref, def.Kind)
	}
}

func (l *loader) atomic(name string, def typeDefinition) (Type, error) {
	if def.Inherits != "" {
		parent, err := l.resolve(def.Inherits)
		if err != nil {
			return nil, fmt.Errorf("type %q: %w", name, err)
		}
		if _, ok := parent.(*Atomic); !ok {
			return nil, fmt.Errorf("atomic type %q cannot inherit from %s", name, parent)
		}
	}

	parser, ok := l.parsers.Lookup(name)
	if !ok {
		parser = String.Parser
	}

	atomic := &Atomic{Name: name}
	if len(def.Values) > 0 {
		enum := Enum(name, def.Values...)
		atomic.Values = enum.Values
		parser = enum.Parser
	}
	if def.Expr != "" {
		program, err := expr.Compile(def.Expr, expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("type %q: compile expr: %w", name, err)
		}
		parser = &constraint{base: parser, source: def.Expr, program: program}
	}
	if len(def.Values) > 0 || def.Expr != "" {
		l.parsers.RegisterInheriting(name, parser)
	}

	atomic.Parser = parser
	l.named[name] = atomic
	return atomic, nil
}

func (l *loader) bean(name string) (Type, error) {
	bean := NewBean(name)
	l.named[name] = bean

	closure := l.hierarchy.Closure(name)
	for i := len(closure) - 1; i >= 0; i-- {
		def, ok := l.defs[closure[i]]
		if !ok {
			return nil, fmt.Errorf("type %q inherits from %w %q", name, ErrUnknownType, closure[i])
		}
		if def.Kind != KindBean {
			return nil, fmt.Errorf("bean %q cannot inherit from %s type %q", name, def.Kind, closure[i])
		}
		for _, propName := range sortedKeys(def.Properties) {
			pd := def.Properties[propName]
			t, err := l.resolve(pd.Type)
			if err != nil {
				return nil, fmt.Errorf("property %s.%s: %w", name, propName, err)
			}
			bean.AddProperty(&Property{
				Name:               propName,
				Type:               t,
				Description:        pd.Description,
				Required:           pd.Required,
				Deprecated:         pd.Deprecated || pd.Replacement != "",
				DeprecationMessage: pd.Message,
				Replacement:        pd.Replacement,
			})
		}
	}

	return bean, nil
}

// constraint checks a parsed value against a boolean expr expression with
// the value bound to "value".
type constraint struct {
	base    ValueParser
	source  string
	program *vm.Program
}

func (c *constraint) Parse(text string) (any, error) {
	v, err := c.base.Parse(text)
	if err != nil {
		return nil, err
	}

	out, err := expr.Run(c.program, map[string]any{"value": exprValue(v)})
	if err != nil {
		return nil, &ValueError{Message: fmt.Sprintf("'%s' cannot be checked against '%s': %v", text, c.source, err)}
	}
	if ok, _ := out.(bool); !ok {
		return nil, &ValueError{Message: fmt.Sprintf("'%s' does not satisfy '%s'", text, c.source)}
	}
	return v, nil
}

func exprValue(v any) any {
	switch typed := v.(type) {
	case decimal.Decimal:
		return typed.InexactFloat64()
	case uuid.UUID:
		return typed.String()
	default:
		return v
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
