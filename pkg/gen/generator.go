package gen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/go-park/aspectchain/pkg/astutils"
	"github.com/sirupsen/logrus"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/imports"
)

const (
	aspectPkgPath = "github.com/go-park/aspectchain/pkg/aspect"
	fileSuffix    = "_aspect.gen.go"
)

// Generator holds the state of the analysis. Primarily used to buffer
// the output for format.Source.
type Generator struct {
	options
	pkgList []*astutils.Package // Package we are scanning.
	depPkgs []*astutils.Package // Dependencies scanned for @Aspect only.
	aspects map[astutils.Annotation]astutils.Aspect
	buf     map[string][]byte // output file name to source
	out     map[string][]byte
	err     error
}

func NewGenerator(opts ...Option) *Generator {
	ge := &Generator{
		options: DefaultOptions(),
		aspects: map[astutils.Annotation]astutils.Aspect{},
		buf:     map[string][]byte{},
		out:     map[string][]byte{},
	}
	for _, opt := range opts {
		opt.apply(&ge.options)
	}
	return ge
}

// ParsePackage loads the packages matching the patterns, and the imported packages
// matching deps whose @Aspect declarations must be known.
func (g *Generator) ParsePackage() *Generator {
	if g.err != nil {
		return g
	}
	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedSyntax |
			packages.NeedImports |
			packages.NeedDeps |
			packages.NeedFiles |
			packages.NeedCompiledGoFiles,
		Dir:   g.dir,
		Tests: false,
		Logf:  g.log.Debugf,
	}
	if len(g.tags) > 0 {
		cfg.BuildFlags = []string{fmt.Sprintf("-tags=%s", strings.Join(g.tags, ","))}
	}
	patterns := g.patterns
	if g.recursive {
		patterns = getAllPathPatterns(g.dir, patterns)
	}
	pkgList, err := packages.Load(cfg, patterns...)
	if err != nil {
		g.err = fmt.Errorf("load packages: %w", err)
		return g
	}
	seen := map[string]bool{}
	var depPkgList []*packages.Package
	for _, pkg := range pkgList {
		seen[pkg.PkgPath] = true
	}
	for _, dep := range g.deps {
		for _, pkg := range pkgList {
			for k, v := range pkg.Imports {
				if strings.HasPrefix(k, dep) && !seen[k] {
					seen[k] = true
					depPkgList = append(depPkgList, v)
				}
			}
		}
	}
	g.log.WithFields(logrus.Fields{
		"patterns": patterns,
		"packages": len(pkgList),
		"deps":     len(depPkgList),
	}).Debug("packages loaded")
	for _, pkg := range pkgList {
		if len(pkg.Errors) > 0 {
			g.err = fmt.Errorf("package %s: %v", pkg.PkgPath, pkg.Errors[0])
			return g
		}
		g.pkgList = append(g.pkgList, g.addPackage(pkg))
	}
	for _, pkg := range depPkgList {
		g.depPkgs = append(g.depPkgs, g.addPackage(pkg))
	}
	return g
}

// addPackage adds a Package and its syntax files to the generator.
func (g *Generator) addPackage(pkg *packages.Package) *astutils.Package {
	dir := ""
	if len(pkg.GoFiles) > 0 {
		dir = filepath.Dir(pkg.GoFiles[0])
	}
	item := astutils.NewPackage(pkg.PkgPath, pkg.Name, dir, g.aspects)
	item.ImportName = func(path string) string {
		if imp, ok := pkg.Imports[path]; ok {
			return imp.Name
		}
		return ""
	}
	for _, file := range pkg.Syntax {
		item.AddFile(file)
	}
	return item
}

// AddPackage adds an already parsed package, mainly for tests.
func (g *Generator) AddPackage(pkg *astutils.Package) *Generator {
	pkg.Aspects = g.aspects
	g.pkgList = append(g.pkgList, pkg)
	return g
}

// Generate inspects nodes and renders one file per proxy, plus one per package
// declaring interface pointcuts or proxies.
func (g *Generator) Generate() *Generator {
	if g.err != nil {
		return g
	}
	for _, pkg := range append(append([]*astutils.Package(nil), g.depPkgs...), g.pkgList...) {
		pkg.Aspects = g.aspects
		pkg.InspectAspects()
	}
	for _, pkg := range g.pkgList {
		pkg.Parse()
		if err := g.generatePackage(pkg); err != nil {
			g.err = err
			return g
		}
	}
	return g
}

func (g *Generator) generatePackage(pkg *astutils.Package) error {
	proxies := pkg.Proxies()
	if len(proxies) == 0 && len(pkg.Interfaces) == 0 {
		return nil
	}
	imps, aspectName := importsOf(pkg)
	contextName := pkg.LocalName("context")
	if contextName == "" {
		contextName = "context"
	}
	var types []string
	for _, px := range proxies {
		data := proxyData{
			Package:  pkg.Name,
			Imports:  imps,
			Aspect:   aspectName,
			Context:  contextName,
			Type:     px.Name(),
			Proxy:    px.Name() + px.Suffix(),
			Abstract: px.Abstract(),
			TypeCuts: px.GetPointcuts(),
		}
		for _, m := range px.GetMethods() {
			md := buildMethod(m, aspectName, contextName)
			if md.Adapter == "" && len(md.Cuts) > 0 {
				g.log.WithField("method", px.Name()+"."+m.Name()).
					Warn("pointcut on a method without a leading context or a supported result shape, it is forwarded")
				md.Cuts = nil
			}
			data.Methods = append(data.Methods, md)
		}
		name := filepath.Join(pkg.Dir, strings.ToLower(px.Name())+fileSuffix)
		if err := g.render(name, proxyTemplate, data); err != nil {
			return fmt.Errorf("proxy %s.%s: %w", pkg.Path, px.Name(), err)
		}
		types = append(types, px.Name())
	}
	data := packageData{Package: pkg.Name, Imports: imps, Aspect: aspectName, Types: types}
	byIface := map[string]*interfaceData{}
	for _, cut := range pkg.Interfaces {
		d, ok := byIface[cut.Interface]
		if !ok {
			d = &interfaceData{Name: cut.Interface}
			byIface[cut.Interface] = d
		}
		d.Methods = append(d.Methods, interfaceMethod{Interface: cut.Interface, Method: cut.Method, Aspects: cut.Aspects})
	}
	for _, d := range byIface {
		data.Interfaces = append(data.Interfaces, *d)
	}
	sort.Slice(data.Interfaces, func(i, j int) bool { return data.Interfaces[i].Name < data.Interfaces[j].Name })
	name := filepath.Join(pkg.Dir, "pointcuts"+fileSuffix)
	if err := g.render(name, interfacesTemplate, data); err != nil {
		return fmt.Errorf("pointcuts of %s: %w", pkg.Path, err)
	}
	return nil
}

func (g *Generator) render(name string, tpl *template.Template, data any) error {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return err
	}
	g.buf[name] = buf.Bytes()
	return nil
}

// importsOf returns the imports of pkg with the aspect package added when missing, and
// the name the aspect package is referenced by.
func importsOf(pkg *astutils.Package) ([]importData, string) {
	var list []importData
	for _, spec := range pkg.ImportSpecs() {
		imp := importData{Path: spec.Path.Value}
		if spec.Name != nil {
			imp.Alias = spec.Name.Name
		}
		if imp.Alias == "_" || imp.Alias == "." {
			continue
		}
		list = append(list, imp)
	}
	aspectName := pkg.LocalName(aspectPkgPath)
	if aspectName == "" {
		aspectName = "aspect"
		list = append(list, importData{Path: strconv.Quote(aspectPkgPath)})
	}
	return list, aspectName
}

// Format returns the gofmt-ed contents of the Generator's buffer.
func (g *Generator) Format() *Generator {
	if g.err != nil {
		return g
	}
	for name, src := range g.buf {
		out, err := imports.Process(name, src, nil)
		if err != nil {
			// Should never happen, but can arise when developing this code.
			// The user can compile the output to see the error.
			g.log.WithError(err).WithField("file", name).Warn("invalid Go generated, writing it unformatted")
			out = src
		}
		g.out[name] = out
	}
	return g
}

// Files returns the formatted output by file name.
func (g *Generator) Files() map[string][]byte {
	return g.out
}

// Output writes the formatted files next to the sources.
func (g *Generator) Output() *Generator {
	if g.err != nil {
		return g
	}
	for name, src := range g.out {
		if err := os.WriteFile(name, src, 0o644); err != nil {
			g.err = fmt.Errorf("writing output: %w", err)
			return g
		}
		g.log.WithField("file", name).Info("generated")
	}
	return g
}

func (g *Generator) Err() error { return g.err }

func Do(opts ...Option) error {
	return NewGenerator(opts...).ParsePackage().Generate().Format().Output().Err()
}
