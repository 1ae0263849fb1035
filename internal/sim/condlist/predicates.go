package condlist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// PredicateSet resolves =name / !name guard terms. Predicates come from
// two places: Go functions registered at startup, and tengo scripts
// loaded from a directory (one predicate per *.tengo file, named after
// the file). Scripts receive `actor`, `speaker` and `args` globals and
// must assign a boolean `result`.
type PredicateSet struct {
	native  map[string]NativePredicate
	scripts map[string]*tengo.Compiled
}

type NativePredicate func(actor, speaker ActorView, args []string) bool

// ScriptStater lets an actor expose a richer state map to predicate
// scripts than the ActorView interface carries.
type ScriptStater interface {
	ScriptState() map[string]interface{}
}

func NewPredicateSet() *PredicateSet {
	return &PredicateSet{
		native:  map[string]NativePredicate{},
		scripts: map[string]*tengo.Compiled{},
	}
}

func (p *PredicateSet) Register(name string, fn NativePredicate) {
	if _, dup := p.native[name]; dup {
		panic(fmt.Sprintf("condlist: duplicate native predicate %q", name))
	}
	p.native[name] = fn
}

// LoadScripts compiles every *.tengo file under dir. A missing directory
// is not an error; predicates are optional content.
func (p *PredicateSet) LoadScripts(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tengo") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".tengo")
		src, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read predicate %s: %w", entry.Name(), err)
		}
		compiled, err := compilePredicate(src)
		if err != nil {
			return fmt.Errorf("compile predicate %s: %w", entry.Name(), err)
		}
		if _, dup := p.scripts[name]; dup {
			return fmt.Errorf("duplicate predicate script %q", name)
		}
		p.scripts[name] = compiled
	}
	return nil
}

func compilePredicate(src []byte) (*tengo.Compiled, error) {
	script := tengo.NewScript(src)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	// Globals must exist before compilation so calls can Set them.
	_ = script.Add("actor", map[string]interface{}{})
	_ = script.Add("speaker", map[string]interface{}{})
	_ = script.Add("args", []interface{}{})
	return script.Compile()
}

// Call evaluates predicate name. Unknown predicates are configuration
// errors surfaced to the caller.
func (p *PredicateSet) Call(name string, actor, speaker ActorView, args []string) (bool, error) {
	if fn, ok := p.native[name]; ok {
		return fn(actor, speaker, args), nil
	}
	compiled, ok := p.scripts[name]
	if !ok {
		return false, fmt.Errorf("unknown predicate")
	}
	c := compiled.Clone()
	if err := c.Set("actor", scriptState(actor)); err != nil {
		return false, err
	}
	if err := c.Set("speaker", scriptState(speaker)); err != nil {
		return false, err
	}
	argv := make([]interface{}, len(args))
	for i, a := range args {
		argv[i] = a
	}
	if err := c.Set("args", argv); err != nil {
		return false, err
	}
	if err := c.Run(); err != nil {
		return false, err
	}
	return c.Get("result").Bool(), nil
}

func scriptState(v ActorView) map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	if s, ok := v.(ScriptStater); ok {
		return s.ScriptState()
	}
	return map[string]interface{}{"id": v.ActorID()}
}
