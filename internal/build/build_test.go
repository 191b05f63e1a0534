package build

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pyrite/internal/buildcache"
	"pyrite/internal/ir"
	"pyrite/internal/options"
)

// identityFunc builds f(n: int) -> int: return n.
func identityFunc() *ir.FuncIR {
	env := ir.NewEnvironment("f")
	n := env.AddLocal("n", ir.IntRPrimitive, -1, true)
	b0 := ir.NewBasicBlock()
	b0.Ops = append(b0.Ops, ir.NewReturn(n))
	sig := ir.NewFuncSignature([]ir.RuntimeArg{{Name: "n", Type: ir.IntRPrimitive}}, ir.IntRPrimitive)
	return ir.NewFuncIR("f", "", "mod", sig, []*ir.BasicBlock{b0}, env)
}

func TestCompileModule(t *testing.T) {
	mod := ir.NewModuleIR("mod", nil, []*ir.FuncIR{identityFunc()}, nil)
	result, err := CompileModule(context.Background(), mod, options.Default(), zap.NewNop(), nil)
	require.NoError(t, err)
	require.Len(t, result.Functions, 1)

	fn := result.Functions[0]
	assert.Equal(t, "f", fn.Name)
	assert.False(t, fn.CacheHit)

	wantIR := []string{
		"def f(n):",
		"    n :: int",
		"L0:",
		"    inc_ref n :: int",
		"    return n",
	}
	assert.Equal(t, wantIR, fn.IRText)
	assert.Contains(t, fn.CSource, "CPyDef_mod___f")
	assert.Contains(t, fn.CSource, "return cpy_r_n;")
}

func TestCompileModuleUsesCache(t *testing.T) {
	cache, err := buildcache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer cache.Close()

	mod1 := ir.NewModuleIR("mod", nil, []*ir.FuncIR{identityFunc()}, nil)
	first, err := CompileModule(context.Background(), mod1, options.Default(), nil, cache)
	require.NoError(t, err)
	require.False(t, first.Functions[0].CacheHit)

	// The passes mutate function IR, so a second run gets a fresh copy;
	// identical golden IR must hit the cache.
	mod2 := ir.NewModuleIR("mod", nil, []*ir.FuncIR{identityFunc()}, nil)
	second, err := CompileModule(context.Background(), mod2, options.Default(), nil, cache)
	require.NoError(t, err)
	assert.True(t, second.Functions[0].CacheHit)
	assert.Equal(t, first.Functions[0].CSource, second.Functions[0].CSource)
}

func TestCompileModuleRecoversFromBadIR(t *testing.T) {
	// A function whose block lacks a terminator is a front-end bug; the
	// driver reports it as an error instead of crashing.
	env := ir.NewEnvironment("broken")
	op := ir.NewLoadInt(1)
	env.AddOp(op)
	b0 := ir.NewBasicBlock()
	b0.Ops = append(b0.Ops, op)
	sig := ir.NewFuncSignature(nil, ir.IntRPrimitive)
	fn := ir.NewFuncIR("broken", "", "mod", sig, []*ir.BasicBlock{b0}, env)

	mod := ir.NewModuleIR("mod", nil, []*ir.FuncIR{fn}, nil)
	_, err := CompileModule(context.Background(), mod, options.Default(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestFormatModule(t *testing.T) {
	mod := ir.NewModuleIR("mod", nil, []*ir.FuncIR{identityFunc(), identityFunc()}, nil)
	lines := FormatModule(mod)
	text := strings.Join(lines, "\n")
	assert.Equal(t, 2, strings.Count(text, "def f(n):"))
	// Functions are separated by a blank line.
	assert.Contains(t, text, "return n\n\ndef f(n):")
}
