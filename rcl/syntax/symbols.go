package syntax

import (
	"fmt"
	"sort"
	"strings"
)

// ID is the stable integer identity of a declared symbol. Positive values
// identify real symbols; 0 and -1 are reserved.
type ID int32

const (
	// SkipActionID is the id of the synthetic SKIP action.
	SkipActionID ID = 0

	// ViolationActionID is the id of the synthetic VIOLATION action. The
	// same value doubles as NoIndividual on sender/receiver slots.
	ViolationActionID ID = -1

	// NoIndividual marks an absent sender or receiver.
	NoIndividual ID = -1
)

// SymbolKind tags what a symbol names.
type SymbolKind int

const (
	SymbolAction SymbolKind = iota
	SymbolIndividual
)

func (k SymbolKind) String() string {
	if k == SymbolIndividual {
		return "individual"
	}
	return "action"
}

// Symbol is one interned identifier.
type Symbol struct {
	id   ID
	name string
	kind SymbolKind
}

func (s Symbol) ID() ID           { return s.id }
func (s Symbol) Name() string     { return s.name }
func (s Symbol) Kind() SymbolKind { return s.kind }

// SymbolTable is the bijection between source identifiers and ids. It has a
// two-phase lifecycle: the parser interns symbols into it, then it is frozen
// and stays read-only for the whole analysis. It is an explicit value, not
// process-wide state; callers that run several analyses create one table per
// run.
type SymbolTable struct {
	byName map[string]Symbol
	byID   map[ID]Symbol
	next   ID
	frozen bool
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		byName: map[string]Symbol{},
		byID:   map[ID]Symbol{},
		next:   1,
	}
}

// Intern returns the id of name, assigning the next free id on first sight.
// Interning an existing name with a different kind, or any name after
// Freeze, is an error.
func (t *SymbolTable) Intern(name string, kind SymbolKind) (ID, error) {
	if sym, ok := t.byName[name]; ok {
		if sym.kind != kind {
			return 0, fmt.Errorf("symbol %q already declared as %s", name, sym.kind)
		}
		return sym.id, nil
	}

	if t.frozen {
		return 0, fmt.Errorf("symbol table is frozen; cannot intern %q", name)
	}

	sym := Symbol{id: t.next, name: name, kind: kind}
	t.next++
	t.byName[name] = sym
	t.byID[sym.id] = sym
	return sym.id, nil
}

// Freeze ends the population phase. Later Intern calls for unknown names
// fail.
func (t *SymbolTable) Freeze() {
	t.frozen = true
}

// Lookup returns the symbol interned under name.
func (t *SymbolTable) Lookup(name string) (Symbol, bool) {
	sym, ok := t.byName[name]
	return sym, ok
}

// Name returns the source identifier of id. The reserved ids render as their
// conventional spellings.
func (t *SymbolTable) Name(id ID) string {
	switch id {
	case SkipActionID:
		return "0"
	case ViolationActionID:
		return "#viol"
	}
	if sym, ok := t.byID[id]; ok {
		return sym.name
	}
	return fmt.Sprintf("?%d", id)
}

// Len returns the number of interned symbols.
func (t *SymbolTable) Len() int { return len(t.byName) }

func (t *SymbolTable) String() string {
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("SymbolTable:")
	for _, name := range names {
		sym := t.byName[name]
		sb.WriteString(fmt.Sprintf("\n\t%d\t%s\t%s", sym.id, sym.kind, sym.name))
	}
	return sb.String()
}
