package syntax

import (
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// ConflictType says how a catalogue conflict is scoped: Global conflicts
// forbid the two actions co-occurring at all, Relativized conflicts forbid
// them co-occurring with the same sender.
type ConflictType int

const (
	ConflictGlobal ConflictType = iota
	ConflictRelativized
)

func (t ConflictType) String() string {
	if t == ConflictRelativized {
		return "relativized"
	}
	return "global"
}

// Conflict is a catalogue entry declaring two basic actions incompatible.
// The pair is unordered.
type Conflict struct {
	A    BasicAction
	B    BasicAction
	Type ConflictType
}

func NewConflict(a, b BasicAction, t ConflictType) Conflict {
	return Conflict{A: a, B: b, Type: t}
}

// Key is symmetric in A and B, so the same unordered pair always produces
// the same key.
func (c Conflict) Key() string {
	ka, kb := c.A.Key(), c.B.Key()
	if kb < ka {
		ka, kb = kb, ka
	}
	return ka + "#" + kb + "#" + c.Type.String()
}

// Equal treats {A, B} as unordered.
func (c Conflict) Equal(o any) bool {
	other, ok := o.(Conflict)
	if !ok {
		otherPtr, ok := o.(*Conflict)
		if !ok || otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	return c.Key() == other.Key()
}

func (c Conflict) String() string {
	return fmt.Sprintf("(%s # %s, %s)", c.A, c.B, c.Type)
}

// DeonticTag is one atomic deontic statement extracted from a clause: the
// unit of conflict analysis. It is a comparable value.
type DeonticTag struct {
	Deontic        DeonticType
	Action         BasicAction
	Relativization RelativizationType
	Sender         ID
	Receiver       ID
}

// GlobalTag builds a tag with no fixed endpoints.
func GlobalTag(d DeonticType, action BasicAction) DeonticTag {
	return DeonticTag{
		Deontic:        d,
		Action:         action,
		Relativization: Global,
		Sender:         NoIndividual,
		Receiver:       NoIndividual,
	}
}

// RelativizedTag builds a tag with a fixed sender.
func RelativizedTag(d DeonticType, action BasicAction, sender ID) DeonticTag {
	return DeonticTag{
		Deontic:        d,
		Action:         action,
		Relativization: Relativized,
		Sender:         sender,
		Receiver:       NoIndividual,
	}
}

// DirectedTag builds a tag with both endpoints fixed.
func DirectedTag(d DeonticType, action BasicAction, sender, receiver ID) DeonticTag {
	return DeonticTag{
		Deontic:        d,
		Action:         action,
		Relativization: Directed,
		Sender:         sender,
		Receiver:       receiver,
	}
}

func (t DeonticTag) String() string {
	return fmt.Sprintf("%s_%s{%d,%d}(%s)", t.Deontic, t.Relativization, t.Sender, t.Receiver, t.Action)
}

// ConflictInformation records a detected normative conflict on a state: the
// offending tag, the tags it conflicts with, and the conjunct tag set the
// intersection was computed against.
type ConflictInformation struct {
	Tag         DeonticTag
	Conflicting mapset.Set[DeonticTag]
	Against     mapset.Set[DeonticTag]
}

func NewConflictInformation(tag DeonticTag, conflicting, against mapset.Set[DeonticTag]) *ConflictInformation {
	return &ConflictInformation{Tag: tag, Conflicting: conflicting, Against: against}
}

func (ci *ConflictInformation) String() string {
	return fmt.Sprintf("tag %s conflicts with {%s}", ci.Tag, tagSetString(ci.Conflicting))
}

func tagSetString(s mapset.Set[DeonticTag]) string {
	parts := make([]string, 0, s.Cardinality())
	for _, t := range s.ToSlice() {
		parts = append(parts, t.String())
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
