package syntax

// ClauseType discriminates the clause variants.
type ClauseType int

const (
	ClauseBoolean ClauseType = iota
	ClauseDeontic
	ClauseDynamic
)

// DeonticType is the modality of a deontic clause.
type DeonticType int

const (
	Obligation DeonticType = iota
	Permission
	Prohibition
)

func (d DeonticType) String() string {
	switch d {
	case Obligation:
		return "OBLIGATION"
	case Permission:
		return "PERMISSION"
	case Prohibition:
		return "PROHIBITION"
	}
	return "?"
}

// RelativizationType determines how the sender and receiver of a clause are
// quantified: Global leaves both open, Relativized fixes the sender, and
// Directed fixes both.
type RelativizationType int

const (
	Global RelativizationType = iota
	Relativized
	Directed
)

func (r RelativizationType) String() string {
	switch r {
	case Global:
		return "g"
	case Relativized:
		return "r"
	case Directed:
		return "d"
	}
	return "?"
}

// CompositionType is the boolean connective joining a clause to the rest of
// its composition spine.
type CompositionType int

const (
	CompositionNone CompositionType = iota
	CompositionAnd
	CompositionOr
	CompositionXor
)

func (c CompositionType) Symbol() string {
	switch c {
	case CompositionAnd:
		return "&"
	case CompositionOr:
		return "|"
	case CompositionXor:
		return "^"
	}
	return "?"
}

// Composition attaches a further clause to a clause node. Compositions form
// a right-leaning list: a node holds at most one composition, and chains
// continue through Other's own composition. Other is held by shared
// immutable reference, so attaching the same tail to several clauses is
// cheap.
type Composition struct {
	Type  CompositionType
	Other Clause
}

// NewComposition builds a composition edge of the given type.
func NewComposition(t CompositionType, other Clause) *Composition {
	return &Composition{Type: t, Other: other}
}

// Clause is a boolean, deontic or dynamic formula representing a residual
// contract. Clauses are immutable: WithComposition and friends return
// path-copied values and never modify the receiver, which is what lets
// sub-clauses be shared freely between states of the automaton.
type Clause interface {

	// Type returns the variant of the clause. This determines which of the
	// As*() functions may be called.
	Type() ClauseType

	// Returns this clause as a BooleanClause. Panics if Type() does not
	// return ClauseBoolean.
	AsBooleanClause() BooleanClause

	// Returns this clause as a DeonticClause. Panics if Type() does not
	// return ClauseDeontic.
	AsDeonticClause() DeonticClause

	// Returns this clause as a DynamicClause. Panics if Type() does not
	// return ClauseDynamic.
	AsDynamicClause() DynamicClause

	// Composition returns the composition edge of this node, or nil.
	Composition() *Composition

	// WithComposition returns a copy of the clause with its composition
	// replaced. Passing nil clears it.
	WithComposition(comp *Composition) Clause

	// Sender returns the fixed sender of the clause head, or NoIndividual.
	Sender() ID

	// Receiver returns the fixed receiver of the clause head, or
	// NoIndividual.
	Receiver() ID

	// Key returns the canonical pre-order serialization of the clause over
	// symbol ids. Two clauses are structurally equal exactly when their
	// keys match, which makes the key usable as a cache and dedup index.
	Key() string

	// Equal returns whether a clause is structurally equal to another. It
	// returns false for anything that is not a Clause.
	Equal(o any) bool

	String() string
}

// BooleanClause is a satisfied (true) or violated (false) contract.
type BooleanClause struct {
	Value bool

	comp *Composition
}

// True returns the trivially satisfied clause.
func True() BooleanClause { return BooleanClause{Value: true} }

// False returns the violated clause.
func False() BooleanClause { return BooleanClause{Value: false} }

func (c BooleanClause) Type() ClauseType                { return ClauseBoolean }
func (c BooleanClause) AsBooleanClause() BooleanClause  { return c }
func (c BooleanClause) AsDeonticClause() DeonticClause  { panic("Type() is not ClauseDeontic") }
func (c BooleanClause) AsDynamicClause() DynamicClause  { panic("Type() is not ClauseDynamic") }
func (c BooleanClause) Composition() *Composition       { return c.comp }
func (c BooleanClause) Sender() ID                      { return NoIndividual }
func (c BooleanClause) Receiver() ID                    { return NoIndividual }

func (c BooleanClause) WithComposition(comp *Composition) Clause {
	c.comp = comp
	return c
}

func (c BooleanClause) Key() string {
	s := "false"
	if c.Value {
		s = "true"
	}
	return s + compKey(c.comp)
}

func (c BooleanClause) String() string { return c.Key() }

func (c BooleanClause) Equal(o any) bool { return clauseEqual(c, o) }

// DeonticClause obliges, permits or forbids an action. Penalty, when
// non-nil, is the compensation contract triggered by a failed obligation or
// a violated prohibition.
type DeonticClause struct {
	SenderID   ID
	ReceiverID ID
	Rel        RelativizationType
	Action     Action
	Deontic    DeonticType
	Penalty    Clause

	comp *Composition
}

// NewGlobalDeontic builds a deontic clause that applies to every ordered
// pair of individuals.
func NewGlobalDeontic(d DeonticType, action Action) DeonticClause {
	return DeonticClause{
		SenderID:   NoIndividual,
		ReceiverID: NoIndividual,
		Rel:        Global,
		Action:     action,
		Deontic:    d,
	}
}

// NewRelativizedDeontic builds a deontic clause with a fixed sender and a
// universally quantified receiver.
func NewRelativizedDeontic(d DeonticType, action Action, sender ID) DeonticClause {
	return DeonticClause{
		SenderID:   sender,
		ReceiverID: NoIndividual,
		Rel:        Relativized,
		Action:     action,
		Deontic:    d,
	}
}

// NewDirectedDeontic builds a deontic clause with both endpoints fixed.
func NewDirectedDeontic(d DeonticType, action Action, sender, receiver ID) DeonticClause {
	return DeonticClause{
		SenderID:   sender,
		ReceiverID: receiver,
		Rel:        Directed,
		Action:     action,
		Deontic:    d,
	}
}

// WithPenalty returns a copy of the clause with the given compensation
// contract.
func (c DeonticClause) WithPenalty(penalty Clause) DeonticClause {
	c.Penalty = penalty
	return c
}

func (c DeonticClause) Type() ClauseType                { return ClauseDeontic }
func (c DeonticClause) AsBooleanClause() BooleanClause  { panic("Type() is not ClauseBoolean") }
func (c DeonticClause) AsDeonticClause() DeonticClause  { return c }
func (c DeonticClause) AsDynamicClause() DynamicClause  { panic("Type() is not ClauseDynamic") }
func (c DeonticClause) Composition() *Composition       { return c.comp }
func (c DeonticClause) Sender() ID                      { return c.SenderID }
func (c DeonticClause) Receiver() ID                    { return c.ReceiverID }

func (c DeonticClause) WithComposition(comp *Composition) Clause {
	c.comp = comp
	return c
}

func (c DeonticClause) Key() string {
	var letter string
	switch c.Deontic {
	case Obligation:
		letter = "O"
	case Permission:
		letter = "P"
	case Prohibition:
		letter = "F"
	}

	s := letter + "_" + c.Rel.String() + relKey(c.SenderID, c.ReceiverID) + "(" + c.Action.Key() + ")"
	if c.Penalty != nil {
		s += "/" + c.Penalty.Key() + "/"
	}
	return s + compKey(c.comp)
}

func (c DeonticClause) String() string { return c.Key() }

func (c DeonticClause) Equal(o any) bool { return clauseEqual(c, o) }

// DynamicClause activates its inner clause after the action is performed.
type DynamicClause struct {
	SenderID   ID
	ReceiverID ID
	Rel        RelativizationType
	Action     Action
	Inner      Clause

	comp *Composition
}

// NewGlobalDynamic builds a dynamic clause quantified over every ordered
// pair of individuals.
func NewGlobalDynamic(action Action, inner Clause) DynamicClause {
	return DynamicClause{
		SenderID:   NoIndividual,
		ReceiverID: NoIndividual,
		Rel:        Global,
		Action:     action,
		Inner:      inner,
	}
}

// NewRelativizedDynamic builds a dynamic clause with a fixed sender.
func NewRelativizedDynamic(action Action, inner Clause, sender ID) DynamicClause {
	return DynamicClause{
		SenderID:   sender,
		ReceiverID: NoIndividual,
		Rel:        Relativized,
		Action:     action,
		Inner:      inner,
	}
}

// NewDirectedDynamic builds a dynamic clause with both endpoints fixed.
func NewDirectedDynamic(action Action, inner Clause, sender, receiver ID) DynamicClause {
	return DynamicClause{
		SenderID:   sender,
		ReceiverID: receiver,
		Rel:        Directed,
		Action:     action,
		Inner:      inner,
	}
}

func (c DynamicClause) Type() ClauseType                { return ClauseDynamic }
func (c DynamicClause) AsBooleanClause() BooleanClause  { panic("Type() is not ClauseBoolean") }
func (c DynamicClause) AsDeonticClause() DeonticClause  { panic("Type() is not ClauseDeontic") }
func (c DynamicClause) AsDynamicClause() DynamicClause  { return c }
func (c DynamicClause) Composition() *Composition       { return c.comp }
func (c DynamicClause) Sender() ID                      { return c.SenderID }
func (c DynamicClause) Receiver() ID                    { return c.ReceiverID }

func (c DynamicClause) WithComposition(comp *Composition) Clause {
	c.comp = comp
	return c
}

func (c DynamicClause) Key() string {
	inner := "?"
	if c.Inner != nil {
		inner = c.Inner.Key()
	}
	s := c.Rel.String() + relKey(c.SenderID, c.ReceiverID) + "[" + c.Action.Key() + "](" + inner + ")"
	return s + compKey(c.comp)
}

func (c DynamicClause) String() string { return c.Key() }

func (c DynamicClause) Equal(o any) bool { return clauseEqual(c, o) }

func relKey(sender, receiver ID) string {
	return "{" + itoa(sender) + "," + itoa(receiver) + "}"
}

func compKey(comp *Composition) string {
	if comp == nil {
		return ""
	}
	return comp.Type.Symbol() + comp.Other.Key()
}

func itoa(id ID) string {
	if id == 0 {
		return "0"
	}
	neg := id < 0
	if neg {
		id = -id
	}
	var buf [12]byte
	i := len(buf)
	for id > 0 {
		i--
		buf[i] = byte('0' + id%10)
		id /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// clauseEqual implements structural equality for every clause variant by
// comparing canonical keys. A pointer to a clause value is accepted too.
func clauseEqual(c Clause, o any) bool {
	other, ok := o.(Clause)
	if !ok {
		switch p := o.(type) {
		case *BooleanClause:
			if p == nil {
				return false
			}
			other = *p
		case *DeonticClause:
			if p == nil {
				return false
			}
			other = *p
		case *DynamicClause:
			if p == nil {
				return false
			}
			other = *p
		default:
			return false
		}
	}

	return c.Key() == other.Key()
}

// WithoutComposition returns the head of c: the same clause with no
// composition edge.
func WithoutComposition(c Clause) Clause {
	if c.Composition() == nil {
		return c
	}
	return c.WithComposition(nil)
}

// AppendTail attaches other at the rightmost position of c's composition
// spine using the given connective, preserving the right-leaning shape.
func AppendTail(c Clause, other Clause, t CompositionType) Clause {
	comp := c.Composition()
	if comp == nil {
		return c.WithComposition(NewComposition(t, other))
	}

	updated := AppendTail(comp.Other, other, t)
	return c.WithComposition(NewComposition(comp.Type, updated))
}

// Contains reports whether target occurs as a suffix of c's composition
// spine, following only composition edges of type t. The whole of c counts
// as a suffix.
func Contains(c Clause, t CompositionType, target Clause) bool {
	if c.Equal(target) {
		return true
	}

	comp := c.Composition()
	if comp == nil || comp.Type != t {
		return false
	}
	return Contains(comp.Other, t, target)
}
