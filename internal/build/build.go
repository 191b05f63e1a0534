// Package build drives the middle-end pipeline over a module: exception
// splitting, reference-count insertion and C emission for every function,
// fanned out across functions. Each function is transformed independently;
// no shared mutable state spans functions.
package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pyrite/internal/buildcache"
	"pyrite/internal/emit"
	"pyrite/internal/exceptions"
	"pyrite/internal/ir"
	"pyrite/internal/options"
	"pyrite/internal/refcount"
)

// CompiledFunction is the per-function result: the golden IR text after all
// passes and the generated C source.
type CompiledFunction struct {
	Name     string
	IRText   []string
	CSource  string
	CacheHit bool
}

// CompiledModule is the result of compiling one module IR.
type CompiledModule struct {
	Name      string
	BuildID   string
	Functions []*CompiledFunction
	// Declarations are the shared header declarations (tuple structs).
	Declarations []string
}

// CompileModule runs the pass pipeline over every function of mod. The
// cache may be nil. Passes assume well-formed IR and panic on front-end
// bugs; those panics are converted into errors here so one bad function
// doesn't take down the whole driver.
func CompileModule(ctx context.Context, mod *ir.ModuleIR, opts options.CompilerOptions,
	logger *zap.Logger, cache *buildcache.Cache) (*CompiledModule, error) {

	if logger == nil {
		logger = zap.NewNop()
	}
	result := &CompiledModule{
		Name:      mod.Name,
		Functions: make([]*CompiledFunction, len(mod.Functions)),
	}
	if cache != nil {
		result.BuildID = cache.BuildID
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, fn := range mod.Functions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			compiled, err := compileFunction(fn, mod.Name, opts, cache)
			if err != nil {
				return errors.Wrapf(err, "compiling function %s", fn.Name)
			}
			logger.Debug("compiled function",
				zap.String("module", mod.Name),
				zap.String("function", fn.Name),
				zap.Bool("cache_hit", compiled.CacheHit))
			result.Functions[i] = compiled
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Tuple struct declarations are deduplicated module-wide. Emission
	// above used per-function contexts; collect the union serially here.
	sharedCtx := emit.NewEmitterContext()
	for _, fn := range mod.Functions {
		declareTupleTypes(fn, sharedCtx)
	}
	result.Declarations = sharedCtx.DeclarationLines()

	logger.Info("compiled module",
		zap.String("module", mod.Name),
		zap.Int("functions", len(result.Functions)))
	return result, nil
}

func compileFunction(fn *ir.FuncIR, moduleName string, opts options.CompilerOptions,
	cache *buildcache.Cache) (compiled *CompiledFunction, err error) {

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("internal error in %s: %v", fn.Name, r)
		}
	}()

	exceptions.InsertExceptionHandling(fn)
	refcount.InsertRefCountOpcodes(fn)
	irText := ir.FormatFunc(fn)

	key := artifactKey(irText)
	if cache != nil {
		if csource, ok, cerr := cache.Get(key); cerr == nil && ok {
			return &CompiledFunction{Name: fn.Name, IRText: irText, CSource: csource, CacheHit: true}, nil
		}
	}

	emitter := emit.NewEmitter(emit.NewEmitterContext(), fn.Env)
	emit.GenerateNativeFunction(fn, emitter, moduleName+".py", moduleName)
	csource := emitter.String()

	if cache != nil {
		if cerr := cache.Put(key, csource); cerr != nil {
			return nil, cerr
		}
	}
	return &CompiledFunction{Name: fn.Name, IRText: irText, CSource: csource}, nil
}

func declareTupleTypes(fn *ir.FuncIR, ctx *emit.EmitterContext) {
	emitter := emit.NewEmitter(ctx, fn.Env)
	for _, reg := range fn.Env.Regs() {
		if tt, ok := reg.Type().(*ir.RTuple); ok {
			emitter.DeclareTupleStruct(tt)
		}
	}
}

func artifactKey(irText []string) string {
	sum := sha256.Sum256([]byte(strings.Join(irText, "\n")))
	return hex.EncodeToString(sum[:])
}

// FormatModule renders the golden IR of every function in the module.
func FormatModule(mod *ir.ModuleIR) []string {
	var lines []string
	for i, fn := range mod.Functions {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, ir.FormatFunc(fn)...)
	}
	return lines
}
