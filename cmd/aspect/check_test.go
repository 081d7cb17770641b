package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-park/aspectchain/pkg/aspect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAspect(t *testing.T, conf string, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aspects.yaml")
	require.NoError(t, os.WriteFile(path, []byte(conf), 0o644))

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "-c", path))
	err := cmd.Execute()
	return out.String(), err
}

func TestCheck(t *testing.T) {
	out, err := runAspect(t, `
aspects:
  trans: {}
  log: {}
pointcuts:
  - type: example.com/shop.Orders
    aspects: [log]
  - type: example.com/shop.Orders
    method: Place
    aspects: [trans, log]
`, "check")
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("  %-12s %6d\n", "trans", -998))
	assert.Contains(t, out, fmt.Sprintf("  %-12s %6d\n", "log", -1))
	assert.Contains(t, out, fmt.Sprintf("  %-12s %s\n", "log", "example.com/shop.Orders, example.com/shop.Orders.Place"))
	assert.Contains(t, out, fmt.Sprintf("  %-12s %s\n", "trans", "example.com/shop.Orders.Place"))
}

func TestCheckReportsUnregistered(t *testing.T) {
	_, err := runAspect(t, `
aspects:
  log: {}
pointcuts:
  - type: example.com/shop.Orders
    aspects: [audit]
`, "check", "--verbose")
	assert.ErrorIs(t, err, aspect.ErrUnregistered)
	assert.Contains(t, err.Error(), "audit (declared on example.com/shop.Orders)")
}

func TestCheckMissingConfig(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"check", "-c", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, cmd.Execute())
}
