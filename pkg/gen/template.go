package gen

import (
	"strconv"
	"strings"
	"text/template"
)

const header = `// Code generated by aspect; DO NOT EDIT.

package {{.Package}}

import (
{{- range .Imports}}
	{{.Alias}} {{.Path}}
{{- end}}
)
`

const proxyTpl = header + `
// Register{{export .Type}}Pointcuts declares the pointcuts annotated on {{.Type}}.
func Register{{export .Type}}Pointcuts(p *{{.Aspect}}.Pointcuts) *{{.Aspect}}.Pointcuts {
{{- if .TypeCuts}}
	p.OnType((*{{.Type}})(nil), {{quote .TypeCuts}})
{{- end}}
{{- range .Methods}}{{if .Cuts}}
	p.OnMethod((*{{$.Type}})(nil), "{{.Name}}", {{quote .Cuts}})
{{- end}}{{end}}
	return p
}

// {{.Proxy}} runs the aspect chain around every call to {{.Type}}.
type {{.Proxy}} struct {
	target *{{.Type}}
	d      *{{.Aspect}}.Dispatcher
}
{{if .Abstract}}
var _ {{.Abstract}} = (*{{.Proxy}})(nil)
{{end}}
func New{{.Proxy}}(target *{{.Type}}, d *{{.Aspect}}.Dispatcher) *{{.Proxy}} {
	return &{{.Proxy}}{target: target, d: d}
}
{{range .Methods}}
func (p *{{$.Proxy}}) {{.Name}}({{.Params}}) {{.Results}} {
{{- if .Adapter}}
	return {{$.Aspect}}.{{.Adapter}}({{.Ctx}}, p.d, {{$.Aspect}}.Invocation{
		Target: p.target,
		Method: "{{.Name}}",
		Args:   []any{ {{- .Args -}} },
		Proceed: func(ctx {{$.Context}}.Context, args []any) (any, error) {
			{{.Proceed}}
		},
	})
{{- else}}
	{{if .Results}}return {{end}}p.target.{{.Name}}({{.Forward}})
{{- end}}
}
{{end}}`

const interfacesTpl = header + `
{{range .Interfaces}}
// Register{{export .Name}}Pointcuts declares the pointcuts annotated on {{.Name}}.
func Register{{export .Name}}Pointcuts(p *{{$.Aspect}}.Pointcuts) *{{$.Aspect}}.Pointcuts {
{{- range .Methods}}
	p.OnInterface((*{{.Interface}})(nil), "{{.Method}}", {{quote .Aspects}})
{{- end}}
	return p
}
{{end}}
// RegisterPointcuts declares every pointcut annotated in package {{.Package}}.
func RegisterPointcuts(p *{{.Aspect}}.Pointcuts) *{{.Aspect}}.Pointcuts {
{{- range .Types}}
	Register{{export .}}Pointcuts(p)
{{- end}}
{{- range .Interfaces}}
	Register{{export .Name}}Pointcuts(p)
{{- end}}
	return p
}
`

var funcs = template.FuncMap{
	"export": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"quote": func(list []string) string {
		quoted := make([]string, len(list))
		for i, v := range list {
			quoted[i] = strconv.Quote(v)
		}
		return strings.Join(quoted, ", ")
	},
}

var (
	proxyTemplate      = template.Must(template.New("proxy").Funcs(funcs).Parse(proxyTpl))
	interfacesTemplate = template.Must(template.New("interfaces").Funcs(funcs).Parse(interfacesTpl))
)

type (
	importData struct {
		Alias string
		Path  string
	}

	proxyData struct {
		Package  string
		Imports  []importData
		Aspect   string
		Context  string
		Type     string
		Proxy    string
		Abstract string
		TypeCuts []string
		Methods  []methodData
	}

	methodData struct {
		Name    string
		Params  string
		Results string
		Cuts    []string
		// Adapter is the aspect adapter with its type argument, empty when the method is
		// forwarded without interception.
		Adapter string
		Ctx     string
		Args    string
		Proceed string
		Forward string
	}

	interfaceData struct {
		Name    string
		Methods []interfaceMethod
	}

	interfaceMethod struct {
		Interface string
		Method    string
		Aspects   []string
	}

	packageData struct {
		Package    string
		Imports    []importData
		Aspect     string
		Types      []string
		Interfaces []interfaceData
	}
)
