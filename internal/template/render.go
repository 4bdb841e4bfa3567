// Package template implements the command-template substitution language:
// single-brace placeholders over a flat binding set, with doubled braces
// escaping to one literal brace so shell brace expansion survives rendering.
package template

import (
	"strings"

	runerrors "github.com/rulerun/rulerun/pkg/errors"
)

// Context holds the bindings available to a single render: the resolved
// output path and each resolved parameter under a "params." prefix.
type Context map[string]string

// NewContext builds a render context from the resolved output and params.
func NewContext(output string, params map[string]string) Context {
	ctx := make(Context, len(params)+1)
	ctx["output"] = output
	for name, value := range params {
		ctx["params."+name] = value
	}
	return ctx
}

// Render substitutes placeholders in tmpl against the context and returns
// the literal command text. Rendering is pure: identical inputs always
// produce identical output. A placeholder naming an unbound key fails the
// whole render; no partial output is returned.
//
// The scanner runs left to right:
//   - "{{" and "}}" emit a single literal brace.
//   - "{name}" where name parses as a binding name is a placeholder.
//   - any other brace sequence is emitted verbatim, so shell syntax such as
//     "{1..3}" passes through untouched.
func Render(tmpl string, ctx Context) (string, error) {
	var out strings.Builder
	out.Grow(len(tmpl))

	for i := 0; i < len(tmpl); {
		c := tmpl[i]

		if c == '{' {
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				out.WriteByte('{')
				i += 2
				continue
			}

			end := spanEnd(tmpl, i+1)
			if end < 0 {
				// No closing brace on this line of sight; the brace is literal.
				out.WriteByte('{')
				i++
				continue
			}

			name := tmpl[i+1 : end]
			if !validBindingName(name) {
				out.WriteString(tmpl[i : end+1])
				i = end + 1
				continue
			}

			value, ok := ctx[name]
			if !ok {
				return "", runerrors.NewTemplateBindingError("", name)
			}
			out.WriteString(value)
			i = end + 1
			continue
		}

		if c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}' {
			out.WriteByte('}')
			i += 2
			continue
		}

		out.WriteByte(c)
		i++
	}

	return out.String(), nil
}

// spanEnd finds the closing brace of a candidate placeholder starting at
// from. A nested opening brace ends the candidate: the span up to it is
// literal text and scanning restarts at the inner brace.
func spanEnd(tmpl string, from int) int {
	for i := from; i < len(tmpl); i++ {
		switch tmpl[i] {
		case '}':
			return i
		case '{':
			return -1
		}
	}
	return -1
}

func validBindingName(name string) bool {
	if name == "" {
		return false
	}
	for _, segment := range strings.Split(name, ".") {
		if !validIdentifier(segment) {
			return false
		}
	}
	return true
}

func validIdentifier(segment string) bool {
	if segment == "" {
		return false
	}
	for i := 0; i < len(segment); i++ {
		c := segment[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
