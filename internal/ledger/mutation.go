package ledger

import (
	"fmt"
	"sort"
	"strings"
)

// MutationKind names the collection a mutation appends to.
type MutationKind string

const (
	KindComponent MutationKind = "component"
	KindSetup     MutationKind = "setup"
	KindVersion   MutationKind = "version"
	KindTest      MutationKind = "test"
)

// Mutation is one of AddComponent, AddSetup, AddVersion or AddTest.
// The set is closed: only this package can add variants.
type Mutation interface {
	Kind() MutationKind
	normalize() (Mutation, error)
}

// AddComponent registers a new component.
type AddComponent struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// AddSetup registers a new setup over existing components.
type AddSetup struct {
	ID           string   `json:"id" validate:"required"`
	Name         string   `json:"name" validate:"required"`
	ComponentIDs []string `json:"componentIds" validate:"required,min=1,dive,required"`
}

// AddVersion records a released tag of a component.
type AddVersion struct {
	ComponentID string `json:"componentId" validate:"required"`
	Tag         string `json:"tag" validate:"required"`
}

// AddTest records a test outcome for a setup.
type AddTest struct {
	SetupID             string            `json:"setupId" validate:"required"`
	Status              string            `json:"status" validate:"required"`
	ComponentVersionMap map[string]string `json:"componentVersionMap" validate:"required,min=1,dive,keys,required,endkeys,required"`
	Description         string            `json:"description,omitempty"`
}

func (AddComponent) Kind() MutationKind { return KindComponent }
func (AddSetup) Kind() MutationKind     { return KindSetup }
func (AddVersion) Kind() MutationKind   { return KindVersion }
func (AddTest) Kind() MutationKind      { return KindTest }

func (m AddComponent) normalize() (Mutation, error) {
	return AddComponent{ID: clean(m.ID), Name: clean(m.Name)}, nil
}

func (m AddSetup) normalize() (Mutation, error) {
	ids := make([]string, len(m.ComponentIDs))
	for i, id := range m.ComponentIDs {
		ids[i] = clean(id)
	}
	return AddSetup{ID: clean(m.ID), Name: clean(m.Name), ComponentIDs: ids}, nil
}

func (m AddVersion) normalize() (Mutation, error) {
	return AddVersion{ComponentID: clean(m.ComponentID), Tag: clean(m.Tag)}, nil
}

// normalize rejects maps whose keys collapse onto the same component id,
// since only one of their tags could be kept.
func (m AddTest) normalize() (Mutation, error) {
	var versions map[string]string
	if m.ComponentVersionMap != nil {
		versions = make(map[string]string, len(m.ComponentVersionMap))
		sources := make(map[string][]string, len(m.ComponentVersionMap))
		for id, tag := range m.ComponentVersionMap {
			key := clean(id)
			versions[key] = clean(tag)
			sources[key] = append(sources[key], id)
		}
		var collisions []string
		for key, ids := range sources {
			if len(ids) > 1 {
				sort.Strings(ids)
				collisions = append(collisions, fmt.Sprintf("%q (from %s)", key, quoteAll(ids)))
			}
		}
		if len(collisions) > 0 {
			sort.Strings(collisions)
			return nil, NewValidationError("componentVersionMap keys name the same component: %s", strings.Join(collisions, "; "))
		}
	}
	return AddTest{
		SetupID:             clean(m.SetupID),
		Status:              clean(m.Status),
		ComponentVersionMap: versions,
		Description:         clean(m.Description),
	}, nil
}

func quoteAll(ss []string) string {
	quoted := make([]string, len(ss))
	for i, s := range ss {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}

// Change is a validated mutation: the records to append to each collection.
type Change struct {
	Kind       MutationKind
	Components []Component
	Setups     []Setup
	Versions   []Version
	Tests      []TestResult
}

// Apply returns a copy of doc with the change's records appended.
// doc itself is not modified.
func (c *Change) Apply(doc *Document) *Document {
	next := doc.Clone()
	next.Components = append(next.Components, c.Components...)
	next.Setups = append(next.Setups, c.Setups...)
	next.Versions = append(next.Versions, c.Versions...)
	next.Tests = append(next.Tests, c.Tests...)
	return next
}
