package harness

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/ledger/internal/ledger"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("Assertion failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion against doc and returns the
// failure messages.
func EvaluateAssertions(doc *ledger.Document, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertLatestVersion:
			err = assertLatestVersion(doc, assertion)
		case AssertLatestVersions:
			err = assertLatestVersions(doc, assertion)
		case AssertComponentsVersions:
			err = assertComponentsVersions(doc, assertion)
		case AssertSetupComponents:
			err = assertSetupComponents(doc, assertion)
		case AssertSetupTests:
			err = assertSetupTests(doc, assertion)
		case AssertCount:
			err = assertCount(doc, assertion)
		default:
			err = fmt.Errorf("unknown assertion type %q", assertion.Type)
		}

		if err != nil {
			errors = append(errors, fmt.Sprintf("assertion[%d]: %v", i, err))
		}
	}

	return errors
}

func assertLatestVersion(doc *ledger.Document, a Assertion) error {
	got := ""
	if v, ok := doc.LatestVersion(a.Component); ok {
		got = v.Tag
	}
	if got != a.Tag {
		return &AssertionError{
			Type:     AssertLatestVersion,
			Expected: fmt.Sprintf("%s latest %s", a.Component, describeTag(a.Tag)),
			Actual:   describeTag(got),
		}
	}
	return nil
}

func assertLatestVersions(doc *ledger.Document, a Assertion) error {
	latest, err := doc.LatestVersions(a.Setup)
	if err := expectError(AssertLatestVersions, a.Error, err); err != nil || a.Error != "" {
		return err
	}

	got := make(map[string]string, len(latest))
	for _, l := range latest {
		got[l.ComponentID] = ""
		if l.Version != nil {
			got[l.ComponentID] = l.Version.Tag
		}
	}
	if !reflect.DeepEqual(got, a.Latest) {
		return &AssertionError{
			Type:     AssertLatestVersions,
			Expected: fmt.Sprintf("%v", a.Latest),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func assertComponentsVersions(doc *ledger.Document, a Assertion) error {
	got := doc.ComponentsVersions(a.Components)
	want := make(map[string][]string, len(a.Components))
	for _, id := range a.Components {
		want[id] = a.Versions[id]
		if want[id] == nil {
			want[id] = []string{}
		}
	}
	if !reflect.DeepEqual(got, want) {
		return &AssertionError{
			Type:     AssertComponentsVersions,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func assertSetupComponents(doc *ledger.Document, a Assertion) error {
	components, warnings, err := doc.SetupComponents(a.Setup)
	if err := expectError(AssertSetupComponents, a.Error, err); err != nil || a.Error != "" {
		return err
	}

	ids := make([]string, len(components))
	for i, c := range components {
		ids[i] = c.ID
	}
	if !slices.Equal(ids, a.Components) {
		return &AssertionError{
			Type:     AssertSetupComponents,
			Expected: fmt.Sprintf("components %v", a.Components),
			Actual:   fmt.Sprintf("components %v", ids),
		}
	}

	codes := make([]string, len(warnings))
	for i, w := range warnings {
		codes[i] = string(w.Code)
	}
	if !slices.Equal(codes, a.Warnings) {
		return &AssertionError{
			Type:     AssertSetupComponents,
			Expected: fmt.Sprintf("warnings %v", a.Warnings),
			Actual:   fmt.Sprintf("warnings %v", codes),
		}
	}
	return nil
}

func assertSetupTests(doc *ledger.Document, a Assertion) error {
	tests := doc.SetupTests(a.Setup)
	statuses := make([]string, len(tests))
	for i, t := range tests {
		statuses[i] = t.Status
	}
	if !slices.Equal(statuses, a.Statuses) {
		return &AssertionError{
			Type:     AssertSetupTests,
			Expected: fmt.Sprintf("statuses [%s]", strings.Join(a.Statuses, ", ")),
			Actual:   fmt.Sprintf("statuses [%s]", strings.Join(statuses, ", ")),
		}
	}
	return nil
}

func assertCount(doc *ledger.Document, a Assertion) error {
	var n int
	switch a.Collection {
	case "components":
		n = len(doc.Components)
	case "versions":
		n = len(doc.Versions)
	case "setups":
		n = len(doc.Setups)
	case "tests":
		n = len(doc.Tests)
	default:
		return fmt.Errorf("unknown collection %q", a.Collection)
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d %s", a.Count, a.Collection),
			Actual:   fmt.Sprintf("%d %s", n, a.Collection),
		}
	}
	return nil
}

// expectError checks err against the expected ledger error code.
// An empty code means err must be nil.
func expectError(assertType, code string, err error) error {
	got := string(ledger.CodeOf(err))
	if err != nil && got == "" {
		got = err.Error()
	}
	if got != code {
		return &AssertionError{
			Type:     assertType,
			Expected: describeError(code),
			Actual:   describeError(got),
		}
	}
	return nil
}

func describeError(code string) string {
	if code == "" {
		return "no error"
	}
	return "error " + code
}

func describeTag(tag string) string {
	if tag == "" {
		return "no version"
	}
	return tag
}
