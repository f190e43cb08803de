package lang

import (
	"sync"
	"sync/atomic"
)

// Symbol is an interned name. Two symbols are equal exactly when their names
// are equal, so symbols compare with ==.
//
// The zero Symbol is reserved and has the empty name.
type Symbol uint32

// symtab is the process-wide intern table. It only ever grows.
//
// Reads of existing names go through ids (lock-free) and names (an atomic
// slice header). Only interning a previously unseen name takes mu. Appending
// never rewrites an element below the published length, so a reader holding
// an older header always sees fully written entries.
var symtab = newSymbolTable()

type symbolTable struct {
	ids   sync.Map // string -> Symbol
	mu    sync.Mutex
	names atomic.Pointer[[]string]
}

func newSymbolTable() *symbolTable {
	t := new(symbolTable)
	names := make([]string, 1, 1024)
	t.names.Store(&names)

	return t
}

// Intern returns the symbol for name, creating it on first use.
func Intern(name string) Symbol {
	if id, ok := symtab.ids.Load(name); ok {
		return id.(Symbol)
	}

	symtab.mu.Lock()
	defer symtab.mu.Unlock()

	if id, ok := symtab.ids.Load(name); ok {
		return id.(Symbol)
	}

	names := append(*symtab.names.Load(), name)
	sym := Symbol(len(names) - 1)

	symtab.names.Store(&names)
	symtab.ids.Store(name, sym)

	return sym
}

// LookupSymbol returns the symbol for name without creating one.
func LookupSymbol(name string) (Symbol, bool) {
	id, ok := symtab.ids.Load(name)
	if !ok {
		return 0, false
	}

	return id.(Symbol), true
}

// Name returns the name s was interned with.
func (s Symbol) Name() string {
	names := *symtab.names.Load()
	if int(s) >= len(names) {
		return ""
	}

	return names[s]
}

func (s Symbol) String() string { return s.Name() }

// Symbols used by the reader and evaluator.
var (
	symQuote  = Intern("quote")
	symDefine = Intern("define")
	symDef    = Intern("def")
	symLet    = Intern("let")
	symIf     = Intern("if")
	symWhen   = Intern("when")
	symUnless = Intern("unless")
	symLambda = Intern("lambda")
	symLam    = Intern("lam")
	symFn     = Intern("fn")
	symBegin  = Intern("begin")
	symAnd    = Intern("and")
	symOr     = Intern("or")
	symRest   = Intern("&")
)
