// Package codecache caches generated code by content. Functions that print
// to the same resolved tree under the same generator options share one
// code object, the way code stubs are looked up by key before they are
// generated.
package codecache

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"runtime"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/kolkov/ujit/internal/ast"
	"github.com/kolkov/ujit/internal/compiler"
	"github.com/kolkov/ujit/internal/masm"
)

// DefaultMaxSize bounds the number of cached functions when New is given
// a non-positive size.
const DefaultMaxSize = 1024

// Key is the BLAKE2b-256 digest of a function and the generator options.
type Key [blake2b.Size256]byte

// String returns a short hex form of the key.
func (k Key) String() string {
	return hex.EncodeToString(k[:8])
}

// KeyOf computes the cache key of a resolved function.
func KeyOf(fn *ast.FunctionLit, opts compiler.Options) Key {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err) // Only fails for oversized keys
	}
	fmt.Fprintf(h, "reject_for=%t debug_info=%t max_nesting=%d\n",
		opts.RejectFor, opts.DebugInfo, opts.MaxNesting)
	digestFunction(h, fn, opts.DebugInfo)

	var k Key
	h.Sum(k[:0])
	return k
}

// digestFunction writes everything generation depends on: the frame
// layout, the declarations, the printed body with slots and the context
// depth of every captured variable, followed by the same for every nested
// function. The printed form omits
// declarations and nested scopes, so they are written separately.
func digestFunction(w io.Writer, fn *ast.FunctionLit, positions bool) {
	sc := fn.Scope
	fmt.Fprintf(w, "function %q program=%t params=%d locals=%d heap=%d literals=%d eval=%t with=%t\n",
		fn.Name, fn.IsProgram, len(fn.Params), sc.NumLocals, sc.NumHeapSlots,
		fn.NumLiterals, sc.CallsEval, sc.ContainsWith)
	if positions {
		fmt.Fprintf(w, "at %s %d\n", fn.Pos(), fn.Pos().Offset)
	}
	for _, d := range sc.Decls {
		where := "unresolved"
		if d.Ref.Var != nil {
			where = d.Ref.Var.String()
		}
		fmt.Fprintf(w, "decl %s mode=%d fun=%t\n", where, d.Mode, d.Fun != nil)
		if d.Fun != nil {
			digestFunction(w, d.Fun, positions)
		}
	}

	p := ast.NewPrinter(w)
	p.ShowSlots = true
	_ = p.Print(fn)
	io.WriteString(w, "\n")

	// Context slots are addressed through the chain of enclosing contexts,
	// which the printed body does not show.
	for _, s := range fn.Body {
		ast.Walk(s, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.VarRef:
				if v := n.Var; v != nil && v.Slot != nil && v.Slot.Kind == ast.SlotContext {
					fmt.Fprintf(w, "context %s depth=%d\n", v, sc.ContextChainLength(v.Scope))
				}
			case *ast.FunctionLit:
				digestFunction(w, n, positions)
			}
			return true
		})
	}
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits    int
	Misses  int
	Entries int
}

type entry struct {
	code *masm.Code
	err  error
}

// Cache maps keys to generated code. Declined functions are cached too,
// with their error, so a function is checked once. Eviction is FIFO.
// A Cache is safe for concurrent use.
type Cache struct {
	opts    compiler.Options
	maxSize int

	mu      sync.Mutex
	entries map[Key]entry
	order   []Key
	hits    int
	misses  int
}

// New creates a cache generating code with opts.
func New(maxSize int, opts compiler.Options) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Cache{
		opts:    opts,
		maxSize: maxSize,
		entries: make(map[Key]entry),
	}
}

// Options returns the generator options of the cache.
func (c *Cache) Options() compiler.Options { return c.opts }

// Compile returns the code of fn, generating it on a miss.
func (c *Cache) Compile(fn *ast.FunctionLit) (*masm.Code, error) {
	key := KeyOf(fn, c.opts)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		return e.code, e.err
	}
	c.misses++
	c.mu.Unlock()

	// Generated outside the lock; a concurrent miss on the same key
	// generates the same code and the first store wins.
	code, err := compiler.Generate(fn, c.opts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.code, e.err
	}
	if len(c.order) >= c.maxSize {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
	c.entries[key] = entry{code: code, err: err}
	c.order = append(c.order, key)
	return code, err
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries)}
}

// Len returns the number of cached functions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Result is the outcome of precompiling one function.
type Result struct {
	Fn   *ast.FunctionLit
	Code *masm.Code
	Err  error
}

// Precompile generates code for fns on up to workers goroutines and
// returns the results in input order. Functions are independent, so
// their generation runs in parallel; a cancelled ctx stops handing out
// work and marks the remaining functions with ctx.Err().
func (c *Cache) Precompile(ctx context.Context, fns []*ast.FunctionLit, workers int) []Result {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]Result, len(fns))
	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				fn := fns[idx]
				code, err := c.Compile(fn)
				results[idx] = Result{Fn: fn, Code: code, Err: err}
			}
		}()
	}

	next := 0
feed:
	for ; next < len(fns) && ctx.Err() == nil; next++ {
		select {
		case jobs <- next:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	for ; next < len(fns); next++ {
		results[next] = Result{Fn: fns[next], Err: ctx.Err()}
	}
	return results
}
