// Package comparison lines up a shortlist of applications attribute by
// attribute and marks the best value of each row.
package comparison

import (
	"sort"

	"tenant_portal_backend/internal/applications/domain"

	"github.com/google/uuid"
)

// MissingDisplay is shown for attributes a lead does not carry.
const MissingDisplay = "n/a"

// Attribute describes one comparable property of a lead.
type Attribute[T any] struct {
	Key   string
	Label string
	// Extract returns the value and whether the lead carries it.
	Extract func(domain.Lead) (T, bool)
	Format  func(T) string
	// Compare returns a positive number when a is better than b. A nil
	// Compare means the attribute has no ordering and is display-only.
	Compare func(a, b T) int
	// Rankable optionally excludes individual values from ranking, for
	// example a flexible move-in date.
	Rankable func(T) bool
}

// AttributeSpec is an Attribute with its value type erased so attributes of
// different types can be compared in one call.
type AttributeSpec struct {
	Key   string
	Label string

	read    func(domain.Lead) cell
	compare func(a, b any) int
}

// Ordered reports whether the attribute defines a best value.
func (s AttributeSpec) Ordered() bool {
	return s.compare != nil
}

type cell struct {
	present  bool
	rankable bool
	value    any
	display  string
}

// Spec erases the attribute's value type.
func (a Attribute[T]) Spec() AttributeSpec {
	spec := AttributeSpec{Key: a.Key, Label: a.Label}
	spec.read = func(l domain.Lead) cell {
		v, ok := a.Extract(l)
		if !ok {
			return cell{display: MissingDisplay}
		}
		c := cell{present: true, value: v, display: a.Format(v), rankable: a.Compare != nil}
		if c.rankable && a.Rankable != nil && !a.Rankable(v) {
			c.rankable = false
		}
		return c
	}
	if a.Compare != nil {
		spec.compare = func(x, y any) int {
			return a.Compare(x.(T), y.(T))
		}
	}
	return spec
}

// Cell is one lead's value for an attribute.
type Cell struct {
	LeadID  uuid.UUID `json:"lead_id"`
	Display string    `json:"display"`
	Missing bool      `json:"missing"`
	Best    bool      `json:"best"`
}

// AttributeResult is one row of the comparison table.
type AttributeResult struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	// Cells follow the order of the input leads.
	Cells []Cell `json:"cells"`
	// BestLeadIDs is sorted so it does not depend on input order.
	BestLeadIDs []uuid.UUID `json:"best_lead_ids"`
}

// Compare evaluates every attribute across the leads. Fewer than two leads
// is not a comparison and yields an empty result.
//
// Every lead whose value ties the maximum under the attribute's comparator
// is flagged best, so a row may have several winners. Missing and
// unrankable values never win.
func Compare(leads []domain.Lead, attrs []AttributeSpec) []AttributeResult {
	if len(leads) < 2 {
		return []AttributeResult{}
	}

	results := make([]AttributeResult, 0, len(attrs))
	for _, attr := range attrs {
		results = append(results, compareAttribute(leads, attr))
	}
	return results
}

func compareAttribute(leads []domain.Lead, attr AttributeSpec) AttributeResult {
	res := AttributeResult{
		Key:         attr.Key,
		Label:       attr.Label,
		Cells:       make([]Cell, len(leads)),
		BestLeadIDs: []uuid.UUID{},
	}

	cells := make([]cell, len(leads))
	for i, lead := range leads {
		cells[i] = attr.read(lead)
		res.Cells[i] = Cell{LeadID: lead.ID, Display: cells[i].display, Missing: !cells[i].present}
	}

	if !attr.Ordered() {
		return res
	}

	var best any
	found := false
	for _, c := range cells {
		if !c.rankable {
			continue
		}
		if !found || attr.compare(c.value, best) > 0 {
			best = c.value
			found = true
		}
	}
	if !found {
		return res
	}


	for i, c := range cells {
		if c.rankable && attr.compare(c.value, best) == 0 {
			res.Cells[i].Best = true
			res.BestLeadIDs = append(res.BestLeadIDs, leads[i].ID)
		}
	}
	sort.Slice(res.BestLeadIDs, func(i, j int) bool {
		return res.BestLeadIDs[i].String() < res.BestLeadIDs[j].String()
	})
	return res
}

// Higher orders values so that larger is better.
func Higher[T int | float64](a, b T) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}

// Lower orders values so that smaller is better.
func Lower[T int | float64](a, b T) int {
	return Higher(b, a)
}
