package astutils

import (
	"go/ast"
)

// ProxyInterceptor adjusts a proxy from the annotations on its type declaration.
type ProxyInterceptor func(annos []Annotation, p Proxy, doc *ast.CommentGroup)

var proxyInterceptors []ProxyInterceptor

func init() {
	RegisterProxyInterceptors(proxyParams)
}

func RegisterProxyInterceptors(opts ...ProxyInterceptor) {
	proxyInterceptors = append(proxyInterceptors, opts...)
}

// proxyParams reads @Proxy("IOrderService", suffix="Impl").
func proxyParams(annos []Annotation, p Proxy, doc *ast.CommentGroup) {
	_, kv := GetCommentParam(doc, CommentProxy)
	if v, ok := kv[CommentKeyDefault]; ok {
		p.SetAbstract(v)
	}
	if v, ok := kv[CommentKeyAbstract]; ok {
		p.SetAbstract(v)
	}
	if v, ok := kv[CommentKeySuffix]; ok && v != "" {
		p.SetSuffix(v)
	}
}
