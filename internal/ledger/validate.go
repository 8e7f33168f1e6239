package ledger

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// payloadValidate checks the required fields of mutation payloads.
// Field names in errors are the JSON names.
var payloadValidate = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks m against doc and returns the change to apply.
//
// Rejected input yields a Validation *Error and no change. Accepted input may
// still carry warnings. now stamps the date of appended versions and tests
// (Unix milliseconds).
func Validate(doc *Document, m Mutation, now int64) (*Change, []Warning, error) {
	if doc == nil {
		return nil, nil, &Error{Code: ErrCodeNotLoaded, Message: "no ledger document loaded"}
	}
	if m == nil {
		return nil, nil, NewValidationError("no mutation given")
	}
	m, err := m.normalize()
	if err != nil {
		return nil, nil, err
	}
	if err := checkRequired(m); err != nil {
		return nil, nil, err
	}

	switch m := m.(type) {
	case AddComponent:
		return validateComponent(doc, m)
	case AddSetup:
		return validateSetup(doc, m)
	case AddVersion:
		return validateVersion(doc, m, now)
	case AddTest:
		return validateTest(doc, m, now)
	default:
		panic(fmt.Sprintf("ledger: unhandled mutation %T", m))
	}
}

func checkRequired(m Mutation) error {
	err := payloadValidate.Struct(m)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewValidationError("%v", err)
	}
	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		switch fe.Tag() {
		case "min":
			msgs[i] = fmt.Sprintf("expected %s to have at least %s entries", fe.Field(), fe.Param())
		default:
			msgs[i] = fmt.Sprintf("expected %s to be non-empty", fe.Field())
		}
	}
	return NewValidationError("%s", strings.Join(msgs, "; "))
}

func validateComponent(doc *Document, m AddComponent) (*Change, []Warning, error) {
	for _, c := range doc.Components {
		if c.ID == m.ID {
			return nil, nil, NewValidationError("component with id %q already exists", m.ID)
		}
		if c.Name == m.Name {
			return nil, nil, NewValidationError("component with name %q already exists (id %q)", m.Name, c.ID)
		}
	}
	return &Change{
		Kind:       KindComponent,
		Components: []Component{{ID: m.ID, Name: m.Name}},
	}, nil, nil
}

func validateSetup(doc *Document, m AddSetup) (*Change, []Warning, error) {
	ids := slices.Clone(m.ComponentIDs)
	sort.Strings(ids)
	ids = slices.Compact(ids)

	key := componentSetKey(ids)
	for _, s := range doc.Setups {
		if s.ID == m.ID {
			return nil, nil, NewValidationError("setup with id %q already exists", m.ID)
		}
		if s.Name == m.Name {
			return nil, nil, NewValidationError("setup with name %q already exists (id %q)", m.Name, s.ID)
		}
		if componentSetKey(s.ComponentIDs) == key {
			return nil, nil, NewValidationError("setup %q already covers components [%s]", s.ID, strings.Join(ids, ", "))
		}
	}

	var missing []string
	for _, id := range ids {
		if _, ok := doc.Component(id); !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, nil, NewValidationError("components do not exist: %s", strings.Join(missing, ", "))
	}

	return &Change{
		Kind:   KindSetup,
		Setups: []Setup{{ID: m.ID, Name: m.Name, ComponentIDs: ids}},
	}, nil, nil
}

// componentSetKey is the canonical form of a component set: ids sorted and
// joined with a separator that cannot appear in a trimmed id.
func componentSetKey(ids []string) string {
	sorted := slices.Clone(ids)
	sort.Strings(sorted)
	return strings.Join(slices.Compact(sorted), "\x00")
}

func validateVersion(doc *Document, m AddVersion, now int64) (*Change, []Warning, error) {
	if !ValidTag(m.Tag) {
		return nil, nil, NewValidationError("tag %q is not a semantic version", m.Tag)
	}

	change := &Change{Kind: KindVersion}
	var warnings []Warning

	if _, ok := doc.Component(m.ComponentID); !ok {
		name := DisplayName(m.ComponentID)
		for _, c := range doc.Components {
			if c.Name == name {
				return nil, nil, NewValidationError(
					"component %q does not exist and its derived name %q is taken by %q", m.ComponentID, name, c.ID)
			}
		}
		change.Components = []Component{{ID: m.ComponentID, Name: name}}
		warnings = append(warnings, warnf(WarnAutoCreatedComponent,
			"component %q does not exist; it is added as %q and can be renamed in the ledger later", m.ComponentID, name))
	}

	if existing, ok := doc.FindVersion(m.ComponentID, m.Tag); ok {
		warnings = append(warnings, warnf(WarnDuplicateVersion,
			"version %s@%s already recorded at %d; the duplicate is appended as well", m.ComponentID, m.Tag, existing.Date))
	}

	change.Versions = []Version{{ComponentID: m.ComponentID, Tag: m.Tag, Date: now}}
	return change, warnings, nil
}

func validateTest(doc *Document, m AddTest, now int64) (*Change, []Warning, error) {
	var warnings []Warning

	if setup, ok := doc.Setup(m.SetupID); ok {
		var missing, extra []string
		for _, id := range setup.ComponentIDs {
			if _, ok := m.ComponentVersionMap[id]; !ok {
				missing = append(missing, id)
			}
		}
		for id := range m.ComponentVersionMap {
			if !slices.Contains(setup.ComponentIDs, id) {
				extra = append(extra, id)
			}
		}
		sort.Strings(extra)
		if len(missing) > 0 || len(extra) > 0 {
			e := NewValidationError("versions must be given for exactly the components of setup %q", m.SetupID)
			e.Details = map[string]string{}
			if len(missing) > 0 {
				e.Details["missing"] = strings.Join(missing, ",")
			}
			if len(extra) > 0 {
				e.Details["extra"] = strings.Join(extra, ",")
			}
			return nil, nil, e
		}
	} else {
		warnings = append(warnings, warnf(WarnUnknownSetup,
			"setup %q does not exist; the result is saved but only shows in the raw test list", m.SetupID))
	}

	ids := make([]string, 0, len(m.ComponentVersionMap))
	for id := range m.ComponentVersionMap {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		tag := m.ComponentVersionMap[id]
		if _, ok := doc.FindVersion(id, tag); !ok {
			warnings = append(warnings, warnf(WarnUnknownVersion, "version %s@%s is not recorded", id, tag))
		}
	}

	return &Change{
		Kind: KindTest,
		Tests: []TestResult{{
			SetupID:             m.SetupID,
			Status:              m.Status,
			ComponentVersionMap: m.ComponentVersionMap,
			Description:         m.Description,
			Date:                now,
		}},
	}, warnings, nil
}
