package ledger

import (
	"slices"
	"sort"
)

// LatestVersion pairs a component with its highest recorded version.
// Version is nil when no version of the component has been recorded.
type LatestVersion struct {
	ComponentID string   `json:"componentId"`
	Version     *Version `json:"version"`
}

// LatestVersion returns the version of componentID with the greatest
// semantic version precedence, regardless of insertion order.
func (d *Document) LatestVersion(componentID string) (Version, bool) {
	var (
		best  Version
		found bool
	)
	for _, v := range d.Versions {
		if v.ComponentID != componentID {
			continue
		}
		if !found || CompareTags(v.Tag, best.Tag) > 0 {
			best, found = v, true
		}
	}
	return best, found
}

// LatestVersions resolves the latest version of every component of setupID.
// An empty setupID resolves every known component. An unknown setup is a
// NotFound error: the caller asked about that setup specifically.
func (d *Document) LatestVersions(setupID string) ([]LatestVersion, error) {
	var ids []string
	if setupID != "" {
		setup, ok := d.Setup(setupID)
		if !ok {
			return nil, NewNotFoundError("setup", setupID)
		}
		ids = setup.ComponentIDs
	} else {
		ids = make([]string, len(d.Components))
		for i, c := range d.Components {
			ids[i] = c.ID
		}
	}

	latest := make([]LatestVersion, len(ids))
	for i, id := range ids {
		latest[i] = LatestVersion{ComponentID: id}
		if v, ok := d.LatestVersion(id); ok {
			latest[i].Version = &v
		}
	}
	return latest, nil
}

// ComponentsVersions returns every recorded tag of each requested component,
// highest precedence first. Duplicated tags are kept. Every requested id is
// present in the result, with an empty list if nothing was recorded.
func (d *Document) ComponentsVersions(componentIDs []string) map[string][]string {
	result := make(map[string][]string, len(componentIDs))
	for _, id := range componentIDs {
		result[id] = []string{}
	}
	for _, v := range d.Versions {
		if tags, ok := result[v.ComponentID]; ok {
			result[v.ComponentID] = append(tags, v.Tag)
		}
	}
	for _, tags := range result {
		sort.SliceStable(tags, func(i, j int) bool {
			return CompareTags(tags[i], tags[j]) > 0
		})
	}
	return result
}

// SetupComponents returns the known components of setupID in ledger order.
// A setup none of whose components is known yields an EMPTY_SETUP warning.
func (d *Document) SetupComponents(setupID string) ([]Component, []Warning, error) {
	setup, ok := d.Setup(setupID)
	if !ok {
		return nil, nil, NewNotFoundError("setup", setupID)
	}
	components := []Component{}
	for _, c := range d.Components {
		if slices.Contains(setup.ComponentIDs, c.ID) {
			components = append(components, c)
		}
	}
	if len(components) == 0 {
		return components, []Warning{warnf(WarnEmptySetup, "setup %q appears to have no components", setupID)}, nil
	}
	return components, nil, nil
}

// SetupTests returns the test results recorded for setupID, oldest first.
func (d *Document) SetupTests(setupID string) []TestResult {
	tests := []TestResult{}
	for _, t := range d.Tests {
		if t.SetupID == setupID {
			tests = append(tests, t)
		}
	}
	return tests
}
