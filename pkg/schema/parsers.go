package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValueParser converts scalar text into a value or explains why it cannot.
type ValueParser interface {
	Parse(text string) (any, error)
}

// ValueParserFunc adapts a function to ValueParser.
type ValueParserFunc func(text string) (any, error)

// Parse implements ValueParser.
func (f ValueParserFunc) Parse(text string) (any, error) { return f(text) }

// ValueError is returned by parsers that reject a value. Replacement, when
// set, is a corrected value that would be accepted.
type ValueError struct {
	Message     string
	Replacement string
}

func (e *ValueError) Error() string { return e.Message }

// Builtin atomic types.
var (
	String   = &Atomic{Name: "string", Parser: ValueParserFunc(parseString)}
	Int      = &Atomic{Name: "int", Parser: ValueParserFunc(parseInt)}
	Float    = &Atomic{Name: "float", Parser: ValueParserFunc(parseFloat)}
	Bool     = &Atomic{Name: "bool", Parser: ValueParserFunc(parseBool)}
	Duration = &Atomic{Name: "duration", Parser: ValueParserFunc(parseDuration)}
	Decimal  = &Atomic{Name: "decimal", Parser: ValueParserFunc(parseDecimal)}
	UUID     = &Atomic{Name: "uuid", Parser: ValueParserFunc(parseUUID)}
)

// Builtins returns the builtin atomic types keyed by name.
func Builtins() map[string]*Atomic {
	return map[string]*Atomic{
		String.Name:   String,
		Int.Name:      Int,
		Float.Name:    Float,
		Bool.Name:     Bool,
		Duration.Name: Duration,
		Decimal.Name:  Decimal,
		UUID.Name:     UUID,
	}
}

func parseString(text string) (any, error) { return text, nil }

func parseInt(text string) (any, error) {
	n, err := strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 0, 64)
	if err != nil {
		return nil, &ValueError{Message: fmt.Sprintf("'%s' is not a valid int", text)}
	}
	return int(n), nil
}

func parseFloat(text string) (any, error) {
	switch strings.ToLower(text) {
	case ".inf", "+.inf", "-.inf", ".nan":
		return text, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, &ValueError{Message: fmt.Sprintf("'%s' is not a valid float", text)}
	}
	return f, nil
}

func parseBool(text string) (any, error) {
	switch text {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if b, err := strconv.ParseBool(strings.ToLower(text)); err == nil {
		return nil, &ValueError{
			Message:     fmt.Sprintf("'%s' is not a valid bool, use '%t'", text, b),
			Replacement: strconv.FormatBool(b),
		}
	}
	return nil, &ValueError{Message: fmt.Sprintf("'%s' is not a valid bool, expected 'true' or 'false'", text)}
}

func parseDuration(text string) (any, error) {
	d, err := time.ParseDuration(text)
	if err != nil {
		return nil, &ValueError{Message: fmt.Sprintf("'%s' is not a valid duration: %v", text, err)}
	}
	return d, nil
}

func parseDecimal(text string) (any, error) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, &ValueError{Message: fmt.Sprintf("'%s' is not a valid decimal", text)}
	}
	return d, nil
}

func parseUUID(text string) (any, error) {
	id, err := uuid.Parse(text)
	if err != nil {
		return nil, &ValueError{Message: fmt.Sprintf("'%s' is not a valid uuid: %v", text, err)}
	}
	return id, nil
}

// Enum returns an atomic type accepting exactly values. A value matching
// ignoring case is rejected with the canonical spelling as replacement.
func Enum(name string, values ...string) *Atomic {
	allowed := append([]string(nil), values...)
	return &Atomic{
		Name:   name,
		Values: allowed,
		Parser: ValueParserFunc(func(text string) (any, error) {
			for _, v := range allowed {
				if v == text {
					return v, nil
				}
			}
			for _, v := range allowed {
				if strings.EqualFold(v, text) {
					return nil, &ValueError{
						Message:     fmt.Sprintf("'%s' is not a valid '%s', did you mean '%s'?", text, name, v),
						Replacement: v,
					}
				}
			}
			return nil, &ValueError{
				Message: fmt.Sprintf("'%s' is not a valid '%s', expected one of [%s]", text, name, strings.Join(allowed, ", ")),
			}
		}),
	}
}
