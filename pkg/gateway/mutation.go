package gateway

import (
	"fmt"

	"github.com/unowned-ai/duet/pkg/records"
)

// Kind is the type of a Mutation.
type Kind int

const (
	KindAppend Kind = iota
	KindUpdate
	KindRemove
	KindSetScalar
)

func (k Kind) String() string {
	switch k {
	case KindAppend:
		return "append"
	case KindUpdate:
		return "update"
	case KindRemove:
		return "remove"
	case KindSetScalar:
		return "set"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Mutation is one local edit of the caller's own record. Build it with
// Append, Update, Remove or SetScalar.
type Mutation struct {
	Kind       Kind
	Collection records.Collection
	ElementID  string
	Element    records.Element
	Patch      map[string]any
	Field      records.Scalar
	Value      string
}

// Append adds el to collection c.
func Append(c records.Collection, el records.Element) Mutation {
	return Mutation{Kind: KindAppend, Collection: c, Element: el}
}

// Update overwrites the named fields of element id in collection c. Keys are
// the element's JSON field names.
func Update(c records.Collection, id string, patch map[string]any) Mutation {
	return Mutation{Kind: KindUpdate, Collection: c, ElementID: id, Patch: patch}
}

// Remove deletes element id from collection c.
func Remove(c records.Collection, id string) Mutation {
	return Mutation{Kind: KindRemove, Collection: c, ElementID: id}
}

// SetScalar sets a scalar field of the record.
func SetScalar(field records.Scalar, value string) Mutation {
	return Mutation{Kind: KindSetScalar, Field: field, Value: value}
}

func (m Mutation) String() string {
	switch m.Kind {
	case KindAppend:
		return fmt.Sprintf("append %s", m.Collection)
	case KindSetScalar:
		return fmt.Sprintf("set %s", m.Field)
	}
	return fmt.Sprintf("%s %s/%s", m.Kind, m.Collection, m.ElementID)
}
