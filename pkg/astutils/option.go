package astutils

import (
	"go/ast"
)

type (
	Option[T any] func(*T)
)

func WithProxyPkg(path, name string) Option[proxy] {
	return func(o *proxy) {
		o.pkgPath = path
		o.pkgName = name
	}
}

func WithProxyName(name string) Option[proxy] {
	return func(o *proxy) {
		o.name = name
	}
}

func WithProxyImports(specs []*ast.ImportSpec) Option[proxy] {
	return func(o *proxy) {
		o.imports = specs
	}
}

func WithMethodDecl(decl *ast.FuncDecl) Option[method] {
	return func(o *method) {
		o.name = decl.Name.Name
		o.params = decl.Type.Params
		o.results = decl.Type.Results
	}
}

func WithAspectName(name string) Option[aspect] {
	return func(o *aspect) {
		o.name = name
	}
}

func WithAspectCustom(anno Annotation) Option[aspect] {
	return func(o *aspect) {
		o.custom = anno
	}
}

func WithAspectType(typeName string) Option[aspect] {
	return func(o *aspect) {
		o.typeName = typeName
	}
}
