// Package rcl reads Relativized Contract Language source into the abstract
// syntax the analyzer works on.
//
// A contract file declares its vocabulary and conflict catalogue, then
// lists clauses:
//
//	individuals: alice, bob;
//	actions: pay, deliver;
//	conflicts { pay # deliver; }
//
//	O[pay](alice->bob) / F[pay](alice) /;
//	P[deliver](bob);
//	[pay](O[deliver](bob->alice));
//
// O, P and F head obligation, permission and prohibition clauses. An
// endpoint suffix "(a->b)" directs a clause, "(a)" relativizes it to a
// sender, and no suffix leaves it global. "[expr](clause)" is a dynamic
// clause; action expressions combine with +, &, ., ! and *. Clauses
// compose with &, | and ^. "0" is the SKIP action.
package rcl

import (
	"os"

	"github.com/pilati06/recall/rcl/syntax"
)

// ParseContract parses RCL source text, interning every identifier into
// table. The table is left unfrozen so callers can keep assembling; the
// analyzer facade freezes it before analysis starts.
func ParseContract(src string, table *syntax.SymbolTable) (syntax.Contract, error) {
	toks, err := scan(src)
	if err != nil {
		return syntax.Contract{}, err
	}

	return newParser(toks, table).contract()
}

// LoadContract reads and parses a contract file.
func LoadContract(path string, table *syntax.SymbolTable) (syntax.Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return syntax.Contract{}, err
	}
	return ParseContract(string(data), table)
}
