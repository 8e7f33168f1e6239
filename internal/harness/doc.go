// Package harness runs ledger scenarios as executable contract tests.
//
// A scenario is a YAML file listing ledger operations, the outcome each one
// must have, and assertions over the resulting ledger. Scenarios run against
// an in-memory store with a deterministic clock, so the final ledger document
// is byte-stable and can be compared with a golden file.
//
// # Scenario Format
//
//	name: release_flow
//	description: "What this scenario validates"
//	max_attempts: 3            # optional, engine default otherwise
//	steps:
//	  - op: add_component
//	    id: api
//	    name: API
//	  - op: add_version
//	    component_id: api
//	    tag: 1.0.0
//	    rival:                 # applied by another writer first
//	      - op: add_component
//	        id: db
//	        name: Database
//	    expect:
//	      attempts: 2
//	  - op: add_component
//	    id: api
//	    name: Other
//	    expect:
//	      error: VALIDATION
//	assertions:
//	  - type: latest_version
//	    component: api
//	    tag: 1.0.0
//
// # Step Operations
//
//   - add_component: id, name
//   - add_setup: id, name, component_ids
//   - add_version: component_id, tag
//   - add_test: setup_id, status, versions, description
//
// A step without expect must succeed. With expect, error names the required
// error code (empty for success), warnings lists the exact warning codes in
// order, and attempts (if non-zero) the number of writes it took.
//
// # Assertion Types
//
//   - latest_version: latest tag of component ("" when none is recorded)
//   - latest_versions: latest tag per component of setup (or all components)
//   - components_versions: every tag of each of components, highest first
//   - setup_components: component ids of setup, plus expected warnings
//   - setup_tests: statuses of the results recorded for setup, in order
//   - count: number of entries in a collection
//
// latest_versions and setup_components accept error to expect a failure.
package harness
