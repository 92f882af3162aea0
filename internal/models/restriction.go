package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ConditionKind names one restriction condition family.
type ConditionKind string

const (
	CondGroup      ConditionKind = "group"
	CondDate       ConditionKind = "date"
	CondGrade      ConditionKind = "grade"
	CondCompletion ConditionKind = "completion"
	CondNested     ConditionKind = "nested"
)

// Condition is one access condition inside a restriction tree. The concrete
// types below are the only shapes the LMS serializer accepts; anything else
// is rejected at the decoding boundary.
type Condition interface {
	Kind() ConditionKind
}

// GroupCondition restricts access to members of a course group.
type GroupCondition struct {
	GroupID int `json:"id"`
}

// Kind implements Condition.
func (GroupCondition) Kind() ConditionKind { return CondGroup }

// DateCondition restricts access before or after a point in time.
// Direction is ">=" (available from) or "<" (available until).
type DateCondition struct {
	Direction string `json:"d"`
	Unix      int64  `json:"t"`
}

// Kind implements Condition.
func (DateCondition) Kind() ConditionKind { return CondDate }

// GradeCondition restricts access by a grade range on a gradebook item.
// Min and Max are percentages; either may be absent.
type GradeCondition struct {
	ItemID int      `json:"id"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// Kind implements Condition.
func (GradeCondition) Kind() ConditionKind { return CondGrade }

// CompletionCondition restricts access on completion state of another
// activity. Expect is 1 for "must be complete", 0 for "must be incomplete".
type CompletionCondition struct {
	ModuleID int `json:"cm"`
	Expect   int `json:"e"`
}

// Kind implements Condition.
func (CompletionCondition) Kind() ConditionKind { return CondCompletion }

// NestedCondition is a sub-tree combined under its own operator.
type NestedCondition struct {
	Restriction Restriction
}

// Kind implements Condition.
func (NestedCondition) Kind() ConditionKind { return CondNested }

// Restriction is the boolean-combinable access condition tree attached to a
// topic or activity. The serialized form always carries a top-level operator
// and a (possibly empty) condition list; an empty list under either operator
// means unrestricted. ShowWhenUnmet runs parallel to Conditions: true shows
// the item greyed-out when the condition fails, false hides it entirely.
type Restriction struct {
	Op            string
	Conditions    []Condition
	ShowWhenUnmet []bool
}

// EmptyRestriction returns the canonical unrestricted descriptor.
func EmptyRestriction() Restriction {
	return Restriction{Op: "&", Conditions: []Condition{}, ShowWhenUnmet: []bool{}}
}

// Unrestricted reports whether the tree carries no conditions.
func (r Restriction) Unrestricted() bool {
	return len(r.Conditions) == 0
}

// HideWhenUnmet reports whether every unmet condition hides the item
// outright rather than greying it out.
func (r Restriction) HideWhenUnmet() bool {
	if len(r.ShowWhenUnmet) == 0 {
		return false
	}
	for _, show := range r.ShowWhenUnmet {
		if show {
			return false
		}
	}
	return true
}

// OfKind returns the conditions of one family, preserving order.
func (r Restriction) OfKind(kind ConditionKind) []Condition {
	var matched []Condition
	for _, c := range r.Conditions {
		if c.Kind() == kind {
			matched = append(matched, c)
		}
	}
	return matched
}

// WithoutKind returns a copy with every condition of one family removed.
// The parallel show flags of the surviving conditions are preserved.
func (r Restriction) WithoutKind(kind ConditionKind) Restriction {
	out := Restriction{Op: r.Op}
	for i, c := range r.Conditions {
		if c.Kind() == kind {
			continue
		}
		out.Conditions = append(out.Conditions, c)
		out.ShowWhenUnmet = append(out.ShowWhenUnmet, r.showAt(i))
	}
	return out
}

// Append adds a condition with its show flag.
func (r *Restriction) Append(c Condition, showWhenUnmet bool) {
	r.Conditions = append(r.Conditions, c)
	r.ShowWhenUnmet = append(r.ShowWhenUnmet, showWhenUnmet)
}

// SetShowAll overwrites every show flag.
func (r *Restriction) SetShowAll(show bool) {
	r.ShowWhenUnmet = make([]bool, len(r.Conditions))
	for i := range r.ShowWhenUnmet {
		r.ShowWhenUnmet[i] = show
	}
}

func (r Restriction) showAt(i int) bool {
	if i < len(r.ShowWhenUnmet) {
		return r.ShowWhenUnmet[i]
	}
	return true
}

// Summary renders one human-readable line per condition.
func (r Restriction) Summary() []string {
	lines := make([]string, 0, len(r.Conditions))
	for _, c := range r.Conditions {
		switch cond := c.(type) {
		case GroupCondition:
			lines = append(lines, fmt.Sprintf("Group %d", cond.GroupID))
		case DateCondition:
			when := time.Unix(cond.Unix, 0).UTC().Format("2006-01-02 15:04")
			if cond.Direction == "<" {
				lines = append(lines, fmt.Sprintf("Until %s", when))
			} else {
				lines = append(lines, fmt.Sprintf("From %s", when))
			}
		case GradeCondition:
			line := fmt.Sprintf("Grade item %d", cond.ItemID)
			if cond.Min != nil {
				line += fmt.Sprintf(" >= %g%%", *cond.Min)
			}
			if cond.Max != nil {
				line += fmt.Sprintf(" < %g%%", *cond.Max)
			}
			lines = append(lines, line)
		case CompletionCondition:
			if cond.Expect == 1 {
				lines = append(lines, fmt.Sprintf("Completed activity %d", cond.ModuleID))
			} else {
				lines = append(lines, fmt.Sprintf("Not completed activity %d", cond.ModuleID))
			}
		case NestedCondition:
			lines = append(lines, fmt.Sprintf("(%d nested conditions)", len(cond.Restriction.Conditions)))
		}
	}
	return lines
}

type restrictionWire struct {
	Op    string            `json:"op"`
	C     []json.RawMessage `json:"c"`
	ShowC []bool            `json:"showc"`
}

// MarshalJSON serializes the tree in the exact envelope the LMS expects:
// {"op":"&","c":[...],"showc":[...]}.
func (r Restriction) MarshalJSON() ([]byte, error) {
	op := r.Op
	if op == "" {
		op = "&"
	}
	if op != "&" && op != "|" {
		return nil, fmt.Errorf("invalid restriction operator %q", op)
	}

	wire := restrictionWire{
		Op:    op,
		C:     make([]json.RawMessage, 0, len(r.Conditions)),
		ShowC: make([]bool, 0, len(r.Conditions)),
	}
	for i, c := range r.Conditions {
		raw, err := marshalCondition(c)
		if err != nil {
			return nil, err
		}
		wire.C = append(wire.C, raw)
		wire.ShowC = append(wire.ShowC, r.showAt(i))
	}

	return json.Marshal(wire)
}

// UnmarshalJSON decodes the LMS envelope, rejecting unknown condition
// shapes explicitly rather than skipping them.
func (r *Restriction) UnmarshalJSON(data []byte) error {
	var wire restrictionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode restriction envelope: %w", err)
	}
	if wire.Op != "&" && wire.Op != "|" {
		return fmt.Errorf("invalid restriction operator %q", wire.Op)
	}

	out := Restriction{Op: wire.Op, Conditions: []Condition{}, ShowWhenUnmet: []bool{}}
	for i, raw := range wire.C {
		cond, err := decodeCondition(raw)
		if err != nil {
			return err
		}
		show := true
		if i < len(wire.ShowC) {
			show = wire.ShowC[i]
		}
		out.Append(cond, show)
	}

	*r = out
	return nil
}

func marshalCondition(c Condition) (json.RawMessage, error) {
	switch cond := c.(type) {
	case GroupCondition:
		return json.Marshal(struct {
			Type string `json:"type"`
			GroupCondition
		}{"group", cond})
	case DateCondition:
		return json.Marshal(struct {
			Type string `json:"type"`
			DateCondition
		}{"date", cond})
	case GradeCondition:
		return json.Marshal(struct {
			Type string `json:"type"`
			GradeCondition
		}{"grade", cond})
	case CompletionCondition:
		return json.Marshal(struct {
			Type string `json:"type"`
			CompletionCondition
		}{"completion", cond})
	case NestedCondition:
		return json.Marshal(cond.Restriction)
	default:
		return nil, fmt.Errorf("unsupported condition type %T", c)
	}
}

func decodeCondition(raw json.RawMessage) (Condition, error) {
	var probe struct {
		Type *string           `json:"type"`
		C    []json.RawMessage `json:"c"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode condition: %w", err)
	}

	if probe.Type == nil {
		if probe.C == nil {
			return nil, fmt.Errorf("condition has neither a type nor a nested list: %s", string(raw))
		}
		var nested Restriction
		if err := json.Unmarshal(raw, &nested); err != nil {
			return nil, fmt.Errorf("decode nested condition: %w", err)
		}
		return NestedCondition{Restriction: nested}, nil
	}

	switch *probe.Type {
	case "group":
		var cond GroupCondition
		if err := json.Unmarshal(raw, &cond); err != nil {
			return nil, fmt.Errorf("decode group condition: %w", err)
		}
		return cond, nil
	case "date":
		var cond DateCondition
		if err := json.Unmarshal(raw, &cond); err != nil {
			return nil, fmt.Errorf("decode date condition: %w", err)
		}
		if cond.Direction != ">=" && cond.Direction != "<" {
			return nil, fmt.Errorf("invalid date condition direction %q", cond.Direction)
		}
		return cond, nil
	case "grade":
		var cond GradeCondition
		if err := json.Unmarshal(raw, &cond); err != nil {
			return nil, fmt.Errorf("decode grade condition: %w", err)
		}
		return cond, nil
	case "completion":
		var cond CompletionCondition
		if err := json.Unmarshal(raw, &cond); err != nil {
			return nil, fmt.Errorf("decode completion condition: %w", err)
		}
		return cond, nil
	default:
		return nil, fmt.Errorf("unknown condition type %q", *probe.Type)
	}
}
