package records

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Collection names a list-valued field of an AccountRecord. The value equals
// the field's JSON key.
type Collection string

const (
	Goals         Collection = "goals"
	Habits        Collection = "habits"
	Reflections   Collection = "reflections"
	Values        Collection = "values"
	AngerLogs     Collection = "anger_logs"
	Memos         Collection = "memos"
	Wishes        Collection = "wishes"
	Appreciations Collection = "appreciations"
	Manual        Collection = "manual"
	DatePlans     Collection = "date_plans"
)

// Scalar names a non-list field of an AccountRecord.
type Scalar string

const (
	FieldMood        Scalar = "mood"
	FieldPartnerLink Scalar = "partner_link"
)

type collectionInfo struct {
	prefix   string
	shared   bool
	authored bool
}

var collections = map[Collection]collectionInfo{
	Goals:         {prefix: "goal"},
	Habits:        {prefix: "habit"},
	Reflections:   {prefix: "reflection"},
	Values:        {prefix: "value"},
	AngerLogs:     {prefix: "log", shared: true},
	Memos:         {prefix: "memo", shared: true, authored: true},
	Wishes:        {prefix: "wish", shared: true, authored: true},
	Appreciations: {prefix: "appreciation", shared: true, authored: true},
	Manual:        {prefix: "manual", shared: true},
	DatePlans:     {prefix: "plan", shared: true, authored: true},
}

// AllCollections lists every collection, private ones first.
var AllCollections = []Collection{
	Goals, Habits, Reflections, Values,
	AngerLogs, Memos, Wishes, Appreciations, Manual, DatePlans,
}

// ParseCollection resolves a collection from its JSON key.
func ParseCollection(name string) (Collection, error) {
	c := Collection(name)
	if _, ok := collections[c]; !ok {
		return "", fmt.Errorf("unknown collection %q", name)
	}
	return c, nil
}

// Shared reports whether the collection is merged with a linked partner's.
func (c Collection) Shared() bool { return collections[c].shared }

// Authored reports whether the collection's elements carry an author_id.
func (c Collection) Authored() bool { return collections[c].authored }

// NewElementID returns a fresh id for an element of collection c, e.g. "memo_<uuid>".
func NewElementID(c Collection) string {
	prefix := collections[c].prefix
	if prefix == "" {
		prefix = "item"
	}
	return prefix + "_" + uuid.NewString()
}

// Len returns the number of elements in collection c of r.
func (r *AccountRecord) Len(c Collection) int {
	switch c {
	case Goals:
		return len(r.Goals)
	case Habits:
		return len(r.Habits)
	case Reflections:
		return len(r.Reflections)
	case Values:
		return len(r.Values)
	case AngerLogs:
		return len(r.AngerLogs)
	case Memos:
		return len(r.Memos)
	case Wishes:
		return len(r.Wishes)
	case Appreciations:
		return len(r.Appreciations)
	case Manual:
		return len(r.Manual)
	case DatePlans:
		return len(r.DatePlans)
	}
	return 0
}

// DecodeElement parses a JSON object into the element type of collection c.
func DecodeElement(c Collection, data []byte) (Element, error) {
	switch c {
	case Goals:
		return decodeAs[Goal](data)
	case Habits:
		return decodeAs[Habit](data)
	case Reflections:
		return decodeAs[Reflection](data)
	case Values:
		return decodeAs[Value](data)
	case AngerLogs:
		return decodeAs[AngerLog](data)
	case Memos:
		return decodeAs[Memo](data)
	case Wishes:
		return decodeAs[Wish](data)
	case Appreciations:
		return decodeAs[Appreciation](data)
	case Manual:
		return decodeAs[ManualEntry](data)
	case DatePlans:
		return decodeAs[DatePlan](data)
	}
	return nil, fmt.Errorf("unknown collection %q", c)
}

func decodeAs[T Element](data []byte) (Element, error) {
	var el T
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&el); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidElement, err)
	}
	return el, nil
}
