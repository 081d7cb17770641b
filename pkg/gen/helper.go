package gen

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-park/aspectchain/pkg/astutils"
)

// reserved names used by generated proxies
var reserved = map[string]bool{"p": true, "args": true, "ctx": true}

// getAllPathPatterns expands directory patterns into every directory below them.
// Patterns that are not directories, such as "./..." or import paths, are kept.
func getAllPathPatterns(dir string, patterns []string) []string {
	var list []string
	for _, v := range patterns {
		root := v
		if !filepath.IsAbs(root) && dir != "" {
			root = filepath.Join(dir, v)
		}
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			list = append(list, v)
			continue
		}
		_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if !info.IsDir() {
				return nil
			}
			name := info.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata" || name == "vendor") {
				return filepath.SkipDir
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}
			pattern := filepath.ToSlash(filepath.Join(v, rel))
			if pattern != "." && !filepath.IsAbs(pattern) {
				pattern = "./" + pattern
			}
			list = append(list, pattern)
			return nil
		})
	}
	return list
}

func filterEmptyStr(ss ...string) []string {
	arr := make([]string, 0, len(ss))
	for _, s := range ss {
		if len(s) > 0 {
			arr = append(arr, s)
		}
	}
	return arr
}

// buildMethod picks the adapter matching the method's shape. Methods without a leading
// context, or with results the adapters do not cover, are forwarded.
func buildMethod(m astutils.Method, aspectName, contextName string) methodData {
	params := m.GetParams()
	results := m.GetResults()
	md := methodData{Name: m.Name(), Cuts: m.GetPointcuts()}

	withCtx := len(params) > 0 && params[0].Type == contextName+".Context"
	var defs, names, calls, args []string
	for i, prm := range params {
		name := prm.Name
		if i == 0 && withCtx {
			name = "ctx"
		} else if reserved[name] {
			name += "_"
		}
		typ := prm.Type
		spread := ""
		if prm.Variadic {
			typ = "..." + strings.TrimPrefix(typ, "[]")
			spread = "..."
		}
		defs = append(defs, name+" "+typ)
		names = append(names, name+spread)
		if i == 0 && withCtx {
			calls = append(calls, "ctx")
			continue
		}
		idx := len(args)
		args = append(args, name)
		calls = append(calls, aspectName+".Arg["+prm.Type+"](args, "+strconv.Itoa(idx)+")"+spread)
	}
	md.Params = strings.Join(defs, ", ")
	md.Forward = strings.Join(names, ", ")

	var types []string
	for _, r := range results {
		types = append(types, r.Type)
	}
	switch len(types) {
	case 0:
	case 1:
		md.Results = types[0]
	default:
		md.Results = "(" + strings.Join(types, ", ") + ")"
	}
	if !withCtx {
		return md
	}
	call := "p.target." + m.Name() + "(" + strings.Join(calls, ", ") + ")"
	future := "*" + aspectName + ".Future["
	switch {
	case len(types) == 1 && types[0] == "error":
		md.Adapter = "Call"
		md.Proceed = "return nil, " + call
	case len(types) == 2 && types[1] == "error":
		md.Adapter = "CallResult[" + types[0] + "]"
		md.Proceed = "return " + call
	case len(types) == 1 && strings.HasPrefix(types[0], future) && strings.HasSuffix(types[0], "]"):
		inner := strings.TrimSuffix(strings.TrimPrefix(types[0], future), "]")
		if inner == aspectName+".Void" {
			md.Adapter = "Async"
		} else {
			md.Adapter = "AsyncResult[" + inner + "]"
		}
		md.Proceed = "return " + call + ", nil"
	default:
		return md
	}
	md.Ctx = "ctx"
	md.Args = strings.Join(args, ", ")
	return md
}
