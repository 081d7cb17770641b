package gen

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-park/aspectchain/pkg/astutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_getAllPathPatterns(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"a/b", "c", ".git/objects", "_examples/x", "testdata/in", "vendor/m"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, d), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"root", []string{"."}, []string{".", "./a", "./a/b", "./c"}},
		{"subdir", []string{"a"}, []string{"./a", "./a/b"}},
		{"kept", []string{"./...", "example.com/pkg"}, []string{"./...", "example.com/pkg"}},
		{"file", []string{"main.go"}, []string{"main.go"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getAllPathPatterns(dir, tt.patterns))
		})
	}
}

func Test_filterEmptyStr(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, filterEmptyStr("", "a", "", "b"))
	assert.Empty(t, filterEmptyStr(""))
}

func methodsOf(t *testing.T, src string) map[string]astutils.Method {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "m.go", src, parser.ParseComments)
	require.NoError(t, err)
	pkg := astutils.NewPackage("example.com/m", "m", "", nil)
	pkg.AddFile(f)
	pkg.Parse()
	require.Len(t, pkg.Proxies(), 1)
	methods := map[string]astutils.Method{}
	for _, m := range pkg.Proxies()[0].GetMethods() {
		methods[m.Name()] = m
	}
	return methods
}

func Test_buildMethod(t *testing.T) {
	methods := methodsOf(t, `package m

import (
	stdctx "context"

	"github.com/go-park/aspectchain/pkg/aspect"
)

//@Proxy
type S struct{}

func (s *S) A(c stdctx.Context, args []string) error { return nil }
func (s *S) B(c stdctx.Context, _ int, n ...string) (map[string]int, error) { return nil, nil }
func (s *S) C(c stdctx.Context) *aspect.Future[aspect.Void] { return nil }
func (s *S) D(c stdctx.Context, id int) *aspect.Future[[]byte] { return nil }
func (s *S) E(id int) error { return nil }
func (s *S) F(c stdctx.Context) (int, bool) { return 0, false }
`)

	tests := []struct {
		method string
		want   methodData
	}{
		{"A", methodData{
			Name: "A", Params: "ctx stdctx.Context, args_ []string", Results: "error",
			Adapter: "Call", Ctx: "ctx", Args: "args_", Forward: "ctx, args_",
			Proceed: "return nil, p.target.A(ctx, aspect.Arg[[]string](args, 0))",
		}},
		{"B", methodData{
			Name: "B", Params: "ctx stdctx.Context, p1 int, n ...string", Results: "(map[string]int, error)",
			Adapter: "CallResult[map[string]int]", Ctx: "ctx", Args: "p1, n", Forward: "ctx, p1, n...",
			Proceed: "return p.target.B(ctx, aspect.Arg[int](args, 0), aspect.Arg[[]string](args, 1)...)",
		}},
		{"C", methodData{
			Name: "C", Params: "ctx stdctx.Context", Results: "*aspect.Future[aspect.Void]",
			Adapter: "Async", Ctx: "ctx", Forward: "ctx",
			Proceed: "return p.target.C(ctx), nil",
		}},
		{"D", methodData{
			Name: "D", Params: "ctx stdctx.Context, id int", Results: "*aspect.Future[[]byte]",
			Adapter: "AsyncResult[[]byte]", Ctx: "ctx", Args: "id", Forward: "ctx, id",
			Proceed: "return p.target.D(ctx, aspect.Arg[int](args, 0)), nil",
		}},
		{"E", methodData{Name: "E", Params: "id int", Results: "error", Forward: "id"}},
		{"F", methodData{Name: "F", Params: "ctx stdctx.Context", Results: "(int, bool)", Forward: "ctx"}},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			m, ok := methods[tt.method]
			require.True(t, ok)
			assert.Equal(t, tt.want, buildMethod(m, "aspect", "stdctx"))
		})
	}
}
