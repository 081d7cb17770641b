package astutils

import (
	"go/ast"
	"regexp"
	"strings"
)

var regexAnnotation = regexp.MustCompile(`^\s*(@[A-Z][a-zA-Z]*)\(?.*\)?$`)

func trimQuotes(s string) string {
	return strings.TrimFunc(s, func(c rune) bool {
		return c == '"'
	})
}

func trimBrackets(s string) string {
	s = strings.TrimPrefix(s, "(")
	return strings.TrimSuffix(s, ")")
}

// GetCommentParam returns the positional params and the key=value params of every
// line of c annotated with a, as in @Aspect("trans", custom="Transactional").
func GetCommentParam(c *ast.CommentGroup, a Annotation) (values []string, kv map[AnnotationKey]string) {
	kv = make(map[AnnotationKey]string)
	if c == nil {
		return
	}
	for _, line := range strings.Split(c.Text(), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, a.String()) {
			continue
		}
		str := strings.TrimPrefix(line, a.String())
		// @PointcutX is another annotation
		if len(str) > 0 && str[0] != '(' && str[0] != ' ' {
			continue
		}
		str = strings.TrimSpace(str)
		str = strings.TrimSpace(trimBrackets(str))
		for _, v := range strings.Split(str, ",") {
			v = strings.TrimSpace(v)
			if k, val, ok := strings.Cut(v, "="); ok {
				key := AnnotationKey(strings.TrimSpace(k))
				if IsSystemAnnotationKey(key) {
					kv[key] = trimQuotes(strings.TrimSpace(val))
				}
				continue
			}
			if v = trimQuotes(v); v != "" {
				values = append(values, v)
			}
		}
	}
	if len(values) > 0 {
		kv[CommentKeyDefault] = values[0]
	}
	return
}

func parseAnnotation(c *ast.CommentGroup) []Annotation {
	if c == nil {
		return nil
	}
	var result []Annotation
	for _, v := range strings.Split(c.Text(), "\n") {
		if ss := regexAnnotation.FindStringSubmatch(v); len(ss) > 1 {
			result = append(result, Annotation(ss[1]))
		}
	}
	return result
}

func validCustomAnnotation(name string) (Annotation, bool) {
	full := "@" + strings.TrimPrefix(name, "@")
	if regexAnnotation.MatchString(full) {
		anno := Annotation(full)
		if !IsSystemAnnotation(anno) && len(full) > 1 {
			return anno, true
		}
	}
	return "", false
}

// IsTypeIdent returns the type name of a receiver expression such as T or *T.
func IsTypeIdent(expr ast.Expr) (*ast.Ident, bool) {
	switch t := expr.(type) {
	case *ast.Ident:
		return t, true
	case *ast.StarExpr:
		return IsTypeIdent(t.X)
	case *ast.IndexExpr:
		return IsTypeIdent(t.X)
	case *ast.IndexListExpr:
		return IsTypeIdent(t.X)
	}
	return nil, false
}
