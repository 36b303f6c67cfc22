package rcl

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/pilati06/recall/internal/rclerr"
	"github.com/pilati06/recall/rcl/syntax"
)

// parser is a recursive-descent parser over the scanned token stream. It
// interns identifiers into the symbol table as it goes, so by the time a
// Contract comes out the table holds every symbol the analysis will ever
// print.
type parser struct {
	toks  []token
	pos   int
	table *syntax.SymbolTable

	clauses     []syntax.Clause
	globals     []syntax.Conflict
	relativized []syntax.Conflict
	individuals mapset.Set[syntax.ID]
	actions     mapset.Set[syntax.ID]
}

func newParser(toks []token, table *syntax.SymbolTable) *parser {
	return &parser{
		toks:        toks,
		table:       table,
		individuals: mapset.NewThreadUnsafeSet[syntax.ID](),
		actions:     mapset.NewThreadUnsafeSet[syntax.ID](),
	}
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.class != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) accept(class tokenClass) bool {
	if p.peek().class == class {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(class tokenClass) (token, error) {
	t := p.peek()
	if t.class != class {
		return t, p.errf(t, "expected %s, found %s", class, tokenText(t))
	}
	return p.next(), nil
}

func (p *parser) errf(t token, format string, a ...interface{}) error {
	return rclerr.Parsef(t.line, t.col, format, a...)
}

func tokenText(t token) string {
	if t.class == tokEOF {
		return "end of input"
	}
	return "'" + t.text + "'"
}

func (p *parser) contract() (syntax.Contract, error) {
	for p.peek().class != tokEOF {
		if err := p.statement(); err != nil {
			return syntax.Contract{}, err
		}
	}

	return syntax.Contract{
		Clauses:              p.clauses,
		GlobalConflicts:      p.globals,
		RelativizedConflicts: p.relativized,
		Individuals:          p.individuals,
		Actions:              p.actions,
	}, nil
}

func (p *parser) statement() error {
	t := p.peek()

	if t.class == tokIdent {
		switch t.text {
		case "individuals":
			return p.declarationList(syntax.SymbolIndividual)
		case "actions":
			return p.declarationList(syntax.SymbolAction)
		case "conflicts":
			return p.conflictBlock()
		}
	}

	clause, err := p.clause()
	if err != nil {
		return err
	}
	if _, err := p.expect(tokSemi); err != nil {
		return err
	}

	p.clauses = append(p.clauses, clause)
	return nil
}

// declarationList parses "individuals: a, b;" or "actions: x, y;".
func (p *parser) declarationList(kind syntax.SymbolKind) error {
	p.next() // section keyword
	if _, err := p.expect(tokColon); err != nil {
		return err
	}

	for {
		name, err := p.expect(tokIdent)
		if err != nil {
			return err
		}
		if isKeyword(name.text) {
			return p.errf(name, "%q is reserved and cannot be declared", name.text)
		}

		id, internErr := p.table.Intern(name.text, kind)
		if internErr != nil {
			return p.errf(name, "%v", internErr)
		}

		if kind == syntax.SymbolIndividual {
			p.individuals.Add(id)
		} else {
			p.actions.Add(id)
		}

		if !p.accept(tokComma) {
			break
		}
	}

	_, err := p.expect(tokSemi)
	return err
}

// conflictBlock parses "conflicts { a # b; c #s d; }". "#" declares a
// global conflict, "#s" a sender-relativized one.
func (p *parser) conflictBlock() error {
	p.next() // "conflicts"
	if _, err := p.expect(tokLBrace); err != nil {
		return err
	}

	for !p.accept(tokRBrace) {
		a, err := p.basicActionRef()
		if err != nil {
			return err
		}

		t := p.next()
		var conflictType syntax.ConflictType
		switch t.class {
		case tokHash:
			conflictType = syntax.ConflictGlobal
		case tokHashS:
			conflictType = syntax.ConflictRelativized
		default:
			return p.errf(t, "expected # or #s between conflicting actions, found %s", tokenText(t))
		}

		b, err := p.basicActionRef()
		if err != nil {
			return err
		}
		if _, err := p.expect(tokSemi); err != nil {
			return err
		}

		c := syntax.NewConflict(a, b, conflictType)
		if conflictType == syntax.ConflictGlobal {
			p.globals = append(p.globals, c)
		} else {
			p.relativized = append(p.relativized, c)
		}
	}

	return nil
}

func (p *parser) basicActionRef() (syntax.BasicAction, error) {
	name, err := p.expect(tokIdent)
	if err != nil {
		return syntax.BasicAction{}, err
	}

	id, internErr := p.table.Intern(name.text, syntax.SymbolAction)
	if internErr != nil {
		return syntax.BasicAction{}, p.errf(name, "%v", internErr)
	}
	p.actions.Add(id)

	return syntax.NewBasicAction(id), nil
}

// clause parses a clause composition. Compositions are right-associative,
// which builds the right-leaning spine directly.
func (p *parser) clause() (syntax.Clause, error) {
	head, err := p.clauseUnit()
	if err != nil {
		return nil, err
	}

	var compType syntax.CompositionType
	switch p.peek().class {
	case tokAmp:
		compType = syntax.CompositionAnd
	case tokPipe:
		compType = syntax.CompositionOr
	case tokCaret:
		compType = syntax.CompositionXor
	default:
		return head, nil
	}
	p.next()

	rest, err := p.clause()
	if err != nil {
		return nil, err
	}

	return head.WithComposition(syntax.NewComposition(compType, rest)), nil
}

func (p *parser) clauseUnit() (syntax.Clause, error) {
	t := p.peek()

	switch t.class {
	case tokIdent:
		switch t.text {
		case "true":
			p.next()
			return syntax.True(), nil
		case "false":
			p.next()
			return syntax.False(), nil
		case "O", "P", "F":
			return p.deonticClause()
		}
		return nil, p.errf(t, "expected a clause, found %s", tokenText(t))

	case tokLBracket:
		return p.dynamicClause()

	case tokLParen:
		p.next()
		inner, err := p.clause()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return inner, nil
	}

	return nil, p.errf(t, "expected a clause, found %s", tokenText(t))
}

// deonticClause parses O[expr](a->b) with an optional / penalty / suffix.
func (p *parser) deonticClause() (syntax.Clause, error) {
	head := p.next()

	var deontic syntax.DeonticType
	switch head.text {
	case "O":
		deontic = syntax.Obligation
	case "P":
		deontic = syntax.Permission
	case "F":
		deontic = syntax.Prohibition
	}

	if _, err := p.expect(tokLBracket); err != nil {
		return nil, err
	}
	action, err := p.actionExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRBracket); err != nil {
		return nil, err
	}

	rel, sender, receiver, err := p.relativization()
	if err != nil {
		return nil, err
	}

	var clause syntax.DeonticClause
	switch rel {
	case syntax.Global:
		clause = syntax.NewGlobalDeontic(deontic, action)
	case syntax.Relativized:
		clause = syntax.NewRelativizedDeontic(deontic, action, sender)
	case syntax.Directed:
		clause = syntax.NewDirectedDeontic(deontic, action, sender, receiver)
	}

	// a '/' not followed by the start of a clause closes an enclosing
	// penalty instead of opening one
	opensPenalty := false
	if p.peek().class == tokSlash {
		switch p.toks[p.pos+1].class {
		case tokIdent, tokLBracket, tokLParen:
			opensPenalty = true
		}
	}
	if opensPenalty {
		p.next() // '/'
		penalty, err := p.clause()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokSlash); err != nil {
			return nil, err
		}
		clause = clause.WithPenalty(penalty)
	}

	return clause, nil
}

// dynamicClause parses [expr](clause) and [expr:a->b](clause).
func (p *parser) dynamicClause() (syntax.Clause, error) {
	p.next() // '['

	action, err := p.actionExpr()
	if err != nil {
		return nil, err
	}

	rel := syntax.Global
	var sender, receiver syntax.ID

	if p.accept(tokColon) {
		senderTok, err := p.expect(tokIdent)
		if err != nil {
			return nil, err
		}
		sender, err = p.individualRef(senderTok)
		if err != nil {
			return nil, err
		}
		rel = syntax.Relativized

		if p.accept(tokArrow) {
			receiverTok, err := p.expect(tokIdent)
			if err != nil {
				return nil, err
			}
			receiver, err = p.individualRef(receiverTok)
			if err != nil {
				return nil, err
			}
			rel = syntax.Directed
		}
	}

	if _, err := p.expect(tokRBracket); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	inner, err := p.clause()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}

	switch rel {
	case syntax.Relativized:
		return syntax.NewRelativizedDynamic(action, inner, sender), nil
	case syntax.Directed:
		return syntax.NewDirectedDynamic(action, inner, sender, receiver), nil
	}
	return syntax.NewGlobalDynamic(action, inner), nil
}

// relativization parses an optional "(a)" or "(a->b)" endpoint suffix.
func (p *parser) relativization() (syntax.RelativizationType, syntax.ID, syntax.ID, error) {
	if !p.accept(tokLParen) {
		return syntax.Global, syntax.NoIndividual, syntax.NoIndividual, nil
	}

	senderTok, err := p.expect(tokIdent)
	if err != nil {
		return syntax.Global, 0, 0, err
	}
	sender, err := p.individualRef(senderTok)
	if err != nil {
		return syntax.Global, 0, 0, err
	}

	if p.accept(tokArrow) {
		receiverTok, err := p.expect(tokIdent)
		if err != nil {
			return syntax.Global, 0, 0, err
		}
		receiver, err := p.individualRef(receiverTok)
		if err != nil {
			return syntax.Global, 0, 0, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return syntax.Global, 0, 0, err
		}
		return syntax.Directed, sender, receiver, nil
	}

	if _, err := p.expect(tokRParen); err != nil {
		return syntax.Global, 0, 0, err
	}
	return syntax.Relativized, sender, syntax.NoIndividual, nil
}

func (p *parser) individualRef(t token) (syntax.ID, error) {
	if isKeyword(t.text) {
		return 0, p.errf(t, "%q is reserved and cannot name an individual", t.text)
	}

	id, err := p.table.Intern(t.text, syntax.SymbolIndividual)
	if err != nil {
		return 0, p.errf(t, "%v", err)
	}
	p.individuals.Add(id)
	return id, nil
}

// Action expression precedence, tightest first: ! and * bind closest, then
// '.', then '&', then '+'.

func (p *parser) actionExpr() (syntax.Action, error) {
	return p.actionChoice()
}

func (p *parser) actionChoice() (syntax.Action, error) {
	left, err := p.actionConcurrency()
	if err != nil {
		return nil, err
	}

	for p.accept(tokPlus) {
		right, err := p.actionConcurrency()
		if err != nil {
			return nil, err
		}
		left = syntax.ChoiceAction(left, right)
	}
	return left, nil
}

func (p *parser) actionConcurrency() (syntax.Action, error) {
	left, err := p.actionSequence()
	if err != nil {
		return nil, err
	}

	for p.accept(tokAmp) {
		right, err := p.actionSequence()
		if err != nil {
			return nil, err
		}
		left = syntax.ConcurrencyAction(left, right)
	}
	return left, nil
}

func (p *parser) actionSequence() (syntax.Action, error) {
	left, err := p.actionUnary()
	if err != nil {
		return nil, err
	}

	for p.accept(tokDot) {
		right, err := p.actionUnary()
		if err != nil {
			return nil, err
		}
		left = syntax.SequenceAction(left, right)
	}
	return left, nil
}

func (p *parser) actionUnary() (syntax.Action, error) {
	if p.accept(tokBang) {
		operand, err := p.actionUnary()
		if err != nil {
			return nil, err
		}
		// negating a basic action just flips its bit; only composed
		// operands need the operator node
		if operand.Type() == syntax.ActionBasic {
			return operand.AsBasicAction().Negate(), nil
		}
		return syntax.NegationAction(operand), nil
	}

	atom, err := p.actionAtom()
	if err != nil {
		return nil, err
	}

	if p.accept(tokStar) {
		return syntax.StarAction(atom), nil
	}
	return atom, nil
}

func (p *parser) actionAtom() (syntax.Action, error) {
	t := p.peek()

	switch t.class {
	case tokZero:
		p.next()
		return syntax.SkipAction(), nil

	case tokIdent:
		if isKeyword(t.text) {
			return nil, p.errf(t, "%q is reserved and cannot name an action", t.text)
		}
		p.next()

		id, err := p.table.Intern(t.text, syntax.SymbolAction)
		if err != nil {
			return nil, p.errf(t, "%v", err)
		}
		p.actions.Add(id)
		return syntax.NewBasicAction(id), nil

	case tokLParen:
		p.next()
		inner, err := p.actionExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return inner, nil
	}

	return nil, p.errf(t, "expected an action, found %s", tokenText(t))
}
