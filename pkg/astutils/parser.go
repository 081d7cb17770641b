package astutils

import (
	"go/ast"
	"go/token"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-park/aspectchain/pkg/tools/collections"
)

var (
	regexMajorVersion = regexp.MustCompile(`^v[0-9]+$`)
	regexGopkgVersion = regexp.MustCompile(`\.v[0-9]+$`)
)

// File holds a single parsed file and associated data.
type File struct {
	Pkg     *Package  // Package to which this file belongs.
	File    *ast.File // Parsed AST.
	Imports map[string]string
}

type Package struct {
	Path  string
	Name  string
	Dir   string
	Files []*File
	// ImportName resolves the package name of an import path, the last path element
	// when nil.
	ImportName func(path string) string
	// Aspects maps custom annotations to @Aspect declarations. Generators share it
	// between packages.
	Aspects    map[Annotation]Aspect
	Interfaces []InterfaceCut

	structs map[string]*ast.GenDecl
	methods map[string][]*ast.FuncDecl
	imports []*ast.ImportSpec
	proxies []Proxy
}

func NewPackage(path, name, dir string, aspects map[Annotation]Aspect) *Package {
	if aspects == nil {
		aspects = map[Annotation]Aspect{}
	}
	return &Package{
		Path:    path,
		Name:    name,
		Dir:     dir,
		Aspects: aspects,
		structs: map[string]*ast.GenDecl{},
		methods: map[string][]*ast.FuncDecl{},
	}
}

func (p *Package) AddFile(f *ast.File) *File {
	file := &File{Pkg: p, File: f, Imports: map[string]string{}}
	p.Files = append(p.Files, file)
	return file
}

// ImportSpecs returns the imports of every file, deduplicated.
func (p *Package) ImportSpecs() []*ast.ImportSpec {
	return p.imports
}

// Proxies returns the types to weave, in name order. Valid after Parse.
func (p *Package) Proxies() []Proxy {
	return p.proxies
}

// InspectAspects collects @Aspect declarations. It must run on every file of every
// package before Parse, custom annotations may be used across packages.
func (p *Package) InspectAspects() {
	for _, f := range p.Files {
		ast.Inspect(f.File, f.inspectAspect)
	}
}

// Parse inspects every file and builds the proxies.
func (p *Package) Parse() {
	for _, f := range p.Files {
		ast.Inspect(f.File, f.InspectGenDecl)
		ast.Inspect(f.File, f.InspectFuncDecl)
	}
	for _, name := range collections.SortedKeys(p.structs) {
		if px, ok := p.buildProxy(name); ok {
			p.proxies = append(p.proxies, px)
		}
	}
}

func (p *Package) importName(path string) string {
	if p.ImportName != nil {
		if name := p.ImportName(path); name != "" {
			return name
		}
	}
	return defaultImportName(path)
}

func defaultImportName(importPath string) string {
	base := path.Base(importPath)
	if regexMajorVersion.MatchString(base) {
		base = path.Base(path.Dir(importPath))
	}
	base = regexGopkgVersion.ReplaceAllString(base, "")
	base = strings.TrimPrefix(base, "go-")
	return strings.ReplaceAll(base, "-", "_")
}

// pointcutsOf returns the aspects named by @Pointcut and custom annotations in doc.
func (p *Package) pointcutsOf(doc *ast.CommentGroup) []string {
	names, _ := GetCommentParam(doc, CommentPointcut)
	for _, anno := range parseAnnotation(doc) {
		if a, ok := p.Aspects[anno]; ok {
			names = append(names, a.Name())
		}
	}
	return names
}

func (p *Package) buildProxy(name string) (Proxy, bool) {
	decl := p.structs[name]
	annos := parseAnnotation(decl.Doc)
	typeCuts := p.pointcutsOf(decl.Doc)
	woven := collections.Contains(annos, CommentProxy) || len(typeCuts) > 0
	var methods []Method
	for _, fd := range p.methods[name] {
		if !fd.Name.IsExported() {
			continue
		}
		m := NewMethod(WithMethodDecl(fd))
		if cuts := p.pointcutsOf(fd.Doc); len(cuts) > 0 {
			m.SetPointcuts(cuts...)
			woven = true
		}
		methods = append(methods, m)
	}
	if !woven {
		return nil, false
	}
	px := NewProxy(
		WithProxyPkg(p.Path, p.Name),
		WithProxyName(name),
		WithProxyImports(p.imports),
	)
	px.SetPointcuts(typeCuts...)
	px.SetMethods(methods...)
	for _, i := range proxyInterceptors {
		i(annos, px, decl.Doc)
	}
	return px, true
}

func (f *File) inspectAspect(node ast.Node) bool {
	decl, ok := node.(*ast.GenDecl)
	if !ok {
		return true
	}
	if decl.Tok != token.TYPE || !collections.Contains(parseAnnotation(decl.Doc), CommentAspect) {
		return false
	}
	spec, ok := decl.Specs[0].(*ast.TypeSpec)
	if !ok {
		return false
	}
	values, kv := GetCommentParam(decl.Doc, CommentAspect)
	name := spec.Name.Name
	if len(values) > 0 {
		name = values[0]
	}
	custom, ok := validCustomAnnotation(kv[CommentKeyCustom])
	if !ok {
		return false
	}
	f.Pkg.Aspects[custom] = NewAspect(
		WithAspectName(name),
		WithAspectCustom(custom),
		WithAspectType(f.Pkg.Path+"."+spec.Name.Name),
	)
	return false
}

// InspectGenDecl processes one node.
func (f *File) InspectGenDecl(node ast.Node) bool {
	if _, ok := node.(*ast.FuncDecl); ok {
		return false
	}
	decl, ok := node.(*ast.GenDecl)
	if !ok {
		return true
	}
	return f.genDecl(decl)
}

func (f *File) InspectFuncDecl(node ast.Node) bool {
	decl, ok := node.(*ast.FuncDecl)
	if !ok {
		return true
	}
	return f.funcDecl(decl)
}

// genDecl processes one import or type declaration clause.
func (f *File) genDecl(decl *ast.GenDecl) bool {
	switch decl.Tok {
	case token.IMPORT:
		for _, v := range decl.Specs {
			imp, ok := v.(*ast.ImportSpec)
			if !ok {
				continue
			}
			ipath, err := strconv.Unquote(imp.Path.Value)
			if err != nil {
				continue
			}
			name := f.Pkg.importName(ipath)
			if imp.Name != nil {
				name = imp.Name.Name
			}
			f.Imports[name] = ipath
			f.Pkg.addImport(imp)
		}
		return false
	case token.TYPE:
	default:
		return true
	}
	for _, s := range decl.Specs {
		spec, ok := s.(*ast.TypeSpec)
		if !ok {
			continue
		}
		doc := decl.Doc
		if spec.Doc != nil {
			doc = spec.Doc
		}
		switch t := spec.Type.(type) {
		case *ast.StructType:
			f.Pkg.structs[spec.Name.Name] = &ast.GenDecl{Doc: doc, Tok: token.TYPE, Specs: []ast.Spec{spec}}
		case *ast.InterfaceType:
			f.interfaceDecl(spec.Name.Name, t)
		}
	}
	return false
}

// interfaceDecl records @Pointcut on interface methods.
func (f *File) interfaceDecl(name string, t *ast.InterfaceType) {
	if t.Methods == nil {
		return
	}
	for _, m := range t.Methods.List {
		if len(m.Names) == 0 {
			continue
		}
		cuts := f.Pkg.pointcutsOf(m.Doc)
		if len(cuts) == 0 {
			continue
		}
		f.Pkg.Interfaces = append(f.Pkg.Interfaces, InterfaceCut{
			Interface: name,
			Method:    m.Names[0].Name,
			Aspects:   cuts,
		})
	}
}

// funcDecl records methods by receiver type.
func (f *File) funcDecl(decl *ast.FuncDecl) bool {
	if decl.Recv == nil || len(decl.Recv.List) == 0 {
		return false
	}
	ident, ok := IsTypeIdent(decl.Recv.List[0].Type)
	if !ok {
		return false
	}
	f.Pkg.methods[ident.Name] = append(f.Pkg.methods[ident.Name], decl)
	return false
}

func (p *Package) addImport(imp *ast.ImportSpec) {
	for _, v := range p.imports {
		if v.Path.Value == imp.Path.Value && v.Name.String() == imp.Name.String() {
			return
		}
	}
	p.imports = append(p.imports, imp)
}

// LocalName returns the name under which the package's files import importPath, or "".
func (p *Package) LocalName(importPath string) string {
	for _, f := range p.Files {
		for name, v := range f.Imports {
			if v == importPath {
				return name
			}
		}
	}
	return ""
}
