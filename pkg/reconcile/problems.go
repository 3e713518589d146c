package reconcile

import (
	"cmp"
	"slices"
	"sync"

	"github.com/yaklabco/yamlfix/pkg/config"
)

// Problem codes reported by the reconciler.
const (
	CodeUnknownProperty    = "UNKNOWN_PROPERTY"
	CodeValueTypeMismatch  = "VALUE_TYPE_MISMATCH"
	CodeExpectMapping      = "EXPECT_MAPPING"
	CodeExpectSequence     = "EXPECT_SEQUENCE"
	CodeExpectScalar       = "EXPECT_SCALAR"
	CodeDeprecatedProperty = "DEPRECATED_PROPERTY"
	CodeMissingProperty    = "MISSING_PROPERTY"
	CodeDuplicateKey       = "DUPLICATE_KEY"
	CodeDocumentCount      = "DOCUMENT_COUNT"
	CodeYAMLSyntax         = "YAML_SYNTAX"
)

// ProblemType describes one problem code and its defaults.
type ProblemType struct {
	Code            string
	Description     string
	DefaultSeverity config.Severity
	DefaultEnabled  bool

	// CanFix reports whether diagnostics of this type may carry fix data.
	CanFix bool

	// DefaultAutoFix reports whether the fix command applies those fixes
	// without being asked to.
	DefaultAutoFix bool
}

// Registry holds the known problem types.
type Registry struct {
	mu     sync.RWMutex
	byCode map[string]ProblemType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byCode: make(map[string]ProblemType)}
}

// Register adds a problem type, replacing any with the same code.
func (r *Registry) Register(pt ProblemType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCode[pt.Code] = pt
}

// Get retrieves a problem type by code.
func (r *Registry) Get(code string) (ProblemType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pt, ok := r.byCode[code]
	return pt, ok
}

// Types returns all problem types sorted by code.
func (r *Registry) Types() []ProblemType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ProblemType, 0, len(r.byCode))
	for _, pt := range r.byCode {
		result = append(result, pt)
	}
	slices.SortFunc(result, func(a, b ProblemType) int {
		return cmp.Compare(a.Code, b.Code)
	})
	return result
}

// Codes returns all registered codes in sorted order.
func (r *Registry) Codes() []string {
	types := r.Types()
	codes := make([]string, len(types))
	for i, pt := range types {
		codes[i] = pt.Code
	}
	return codes
}

// DefaultRegistry holds the built-in problem types.
//
//nolint:gochecknoglobals // Global registry mirrors the built-in problem set.
var DefaultRegistry = NewRegistry()

func init() {
	for _, pt := range []ProblemType{
		{
			Code:            CodeUnknownProperty,
			Description:     "A mapping key is not a property of the expected type.",
			DefaultSeverity: config.SeverityError,
			DefaultEnabled:  true,
			CanFix:          true,
		},
		{
			Code:            CodeValueTypeMismatch,
			Description:     "A scalar value cannot be parsed as the expected type.",
			DefaultSeverity: config.SeverityError,
			DefaultEnabled:  true,
			CanFix:          true,
			DefaultAutoFix:  true,
		},
		{
			Code:            CodeExpectMapping,
			Description:     "A mapping was expected but another kind of node was found.",
			DefaultSeverity: config.SeverityError,
			DefaultEnabled:  true,
		},
		{
			Code:            CodeExpectSequence,
			Description:     "A sequence was expected but another kind of node was found.",
			DefaultSeverity: config.SeverityError,
			DefaultEnabled:  true,
		},
		{
			Code:            CodeExpectScalar,
			Description:     "A scalar value was expected but another kind of node was found.",
			DefaultSeverity: config.SeverityError,
			DefaultEnabled:  true,
		},
		{
			Code:            CodeDeprecatedProperty,
			Description:     "A property is deprecated; when it names a replacement the value can be moved there.",
			DefaultSeverity: config.SeverityWarning,
			DefaultEnabled:  true,
			CanFix:          true,
			DefaultAutoFix:  true,
		},
		{
			Code:            CodeMissingProperty,
			Description:     "A required property is absent from a mapping whose keys are otherwise all known.",
			DefaultSeverity: config.SeverityError,
			DefaultEnabled:  true,
			CanFix:          true,
			DefaultAutoFix:  true,
		},
		{
			Code:            CodeDuplicateKey,
			Description:     "A mapping defines the same key more than once.",
			DefaultSeverity: config.SeverityError,
			DefaultEnabled:  true,
		},
		{
			Code:            CodeDocumentCount,
			Description:     "The file has fewer or more YAML documents than the schema allows.",
			DefaultSeverity: config.SeverityError,
			DefaultEnabled:  true,
		},
		{
			Code:            CodeYAMLSyntax,
			Description:     "The file is not syntactically valid YAML.",
			DefaultSeverity: config.SeverityError,
			DefaultEnabled:  true,
		},
	} {
		DefaultRegistry.Register(pt)
	}

	config.DefaultProblemInfoProvider = problemInfos
}

func problemInfos() []config.ProblemInfo {
	types := DefaultRegistry.Types()
	infos := make([]config.ProblemInfo, len(types))
	for i, pt := range types {
		infos[i] = config.ProblemInfo{
			Code:        pt.Code,
			Description: pt.Description,
			Severity:    pt.DefaultSeverity,
			Enabled:     pt.DefaultEnabled,
			CanFix:      pt.CanFix,
			AutoFix:     pt.DefaultAutoFix,
		}
	}
	return infos
}
