package astutils

import (
	"fmt"
	"go/ast"
	"go/types"

	"github.com/go-park/aspectchain/pkg/tools/collections"
)

var (
	_ Proxy  = (*proxy)(nil)
	_ Method = (*method)(nil)
	_ Aspect = (*aspect)(nil)
)

type (
	Nameable interface {
		Name() string
	}

	Cutable interface {
		SetPointcuts(names ...string)
		GetPointcuts() []string
	}

	// Proxy is a struct the generator weaves: annotated with @Proxy, or carrying
	// @Pointcut on the type or on one of its methods.
	Proxy interface {
		Nameable
		Cutable
		SetMethods(m ...Method)
		GetMethods() []Method
		PkgPath() string
		PkgName() string
		Imports() []*ast.ImportSpec
		SetAbstract(string)
		Abstract() string
		SetSuffix(string)
		Suffix() string
	}

	// Method is a method declared on a proxied type.
	Method interface {
		Nameable
		Cutable
		GetParams() []Param
		GetResults() []Param
	}

	// Aspect is a type annotated with @Aspect, binding a custom annotation to an aspect name.
	Aspect interface {
		Nameable
		Custom() Annotation
		TypeName() string
	}

	Param struct {
		Name string
		// Type is the source expression, "[]T" for a variadic ...T.
		Type     string
		Variadic bool
	}

	// InterfaceCut declares aspects on a method of an interface.
	InterfaceCut struct {
		Interface string
		Method    string
		Aspects   []string
	}
)

type (
	// implement Proxy
	proxy struct {
		pkgPath   string
		pkgName   string
		name      string
		methods   []Method
		pointcuts []string
		imports   []*ast.ImportSpec
		abstract  string
		suffix    string
	}
	// implement Method
	method struct {
		name      string
		params    *ast.FieldList
		results   *ast.FieldList
		pointcuts []string
	}
	// implement Aspect
	aspect struct {
		name     string
		custom   Annotation
		typeName string
	}
)

func NewProxy(opts ...Option[proxy]) Proxy {
	p := &proxy{suffix: "Proxy"}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func NewMethod(opts ...Option[method]) Method {
	m := &method{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func NewAspect(opts ...Option[aspect]) Aspect {
	a := &aspect{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (p *proxy) Name() string  { return p.name }
func (p *method) Name() string { return p.name }
func (p *aspect) Name() string { return p.name }

func (p *proxy) PkgPath() string            { return p.pkgPath }
func (p *proxy) PkgName() string            { return p.pkgName }
func (p *proxy) Imports() []*ast.ImportSpec { return p.imports }

func (p *aspect) Custom() Annotation { return p.custom }
func (p *aspect) TypeName() string   { return p.typeName }

func (p *proxy) SetMethods(m ...Method) {
	p.methods = append(p.methods, m...)
}

func (p *proxy) GetMethods() []Method {
	return p.methods
}

func (p *proxy) SetPointcuts(names ...string) {
	p.pointcuts = collections.AppendUnique(p.pointcuts, names...)
}

func (p *proxy) GetPointcuts() []string {
	return p.pointcuts
}

func (p *proxy) SetAbstract(s string) {
	p.abstract = s
}

func (p *proxy) Abstract() string {
	return p.abstract
}

func (p *proxy) SetSuffix(s string) {
	p.suffix = s
}

func (p *proxy) Suffix() string {
	return p.suffix
}

func (p *method) GetParams() []Param {
	return parseFields(p.params, "p")
}

func (p *method) GetResults() []Param {
	return parseFields(p.results, "r")
}

func (p *method) SetPointcuts(names ...string) {
	p.pointcuts = collections.AppendUnique(p.pointcuts, names...)
}

func (p *method) GetPointcuts() []string {
	return p.pointcuts
}

func parseFields(list *ast.FieldList, prefix string) []Param {
	var ret []Param
	if list == nil {
		return ret
	}
	for _, field := range list.List {
		var names []string
		for _, v := range field.Names {
			if v.Name == "_" {
				names = append(names, fmt.Sprintf("%s%d", prefix, len(ret)+len(names)))
				continue
			}
			names = append(names, v.Name)
		}
		if len(names) == 0 {
			names = append(names, fmt.Sprintf("%s%d", prefix, len(ret)))
		}
		typ := field.Type
		variadic := false
		if e, ok := typ.(*ast.Ellipsis); ok {
			typ = e.Elt
			variadic = true
		}
		s := types.ExprString(typ)
		if variadic {
			s = "[]" + s
		}
		for _, name := range names {
			ret = append(ret, Param{Name: name, Type: s, Variadic: variadic})
		}
	}
	return ret
}
