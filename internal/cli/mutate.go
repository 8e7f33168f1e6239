package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ledger/internal/ledger"
)

// MutationOutput is the JSON payload of the add-* commands.
type MutationOutput struct {
	Kind     ledger.MutationKind `json:"kind"`
	Revision string              `json:"revision"`
	Attempts int                 `json:"attempts"`
}

// applyMutation fetches the ledger, applies m and reports the outcome.
func applyMutation(s *session, m ledger.Mutation, success string) error {
	st, err := s.fetch()
	if err != nil {
		return err
	}
	next, res, err := s.engine.Apply(s.ctx, st, m)
	if err != nil {
		return s.out.Fail(fmt.Sprintf("failed to add %s", m.Kind()), err)
	}
	s.logger.Debug("change written", "kind", res.Kind, "revision", next.Revision, "attempts", res.Attempts)
	return s.out.Success(MutationOutput{
		Kind:     res.Kind,
		Revision: next.Revision,
		Attempts: res.Attempts,
	}, "SUCCESS: "+success, res.Warnings)
}

// NewAddComponentCommand creates the add-component command.
func NewAddComponentCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add-component <id> <name>",
		Short: "Register a component",
		Long: `Register a component under a unique id and display name.

Example:
  ledger add-component api "API Gateway"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := ledger.AddComponent{ID: args[0], Name: args[1]}
			return withSession(cmd, rootOpts, func(s *session) error {
				return applyMutation(s, m, fmt.Sprintf("Added component %s (%s)", m.ID, m.Name))
			})
		},
	}
}

// NewAddSetupCommand creates the add-setup command.
func NewAddSetupCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add-setup <id> <name> <component-id>...",
		Short: "Register a test setup over existing components",
		Long: `Register a test setup: a named group of components tested together.

Every component must already exist, and no other setup may cover the same
set of components.

Example:
  ledger add-setup full-stack "Full stack" api web db`,
		Args:          cobra.MinimumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := ledger.AddSetup{ID: args[0], Name: args[1], ComponentIDs: args[2:]}
			return withSession(cmd, rootOpts, func(s *session) error {
				return applyMutation(s, m, fmt.Sprintf("Added setup %s (%s)", m.ID, strings.Join(m.ComponentIDs, ", ")))
			})
		},
	}
}

// NewAddVersionCommand creates the add-version command.
func NewAddVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add-version <component-id> <tag>",
		Short: "Record a released version of a component",
		Long: `Record a released version of a component.

The tag must be a semantic version ("1.2.0" or "v1.2.0"). An unknown
component is created with a name derived from its id.

Example:
  ledger add-version api 1.4.0`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := ledger.AddVersion{ComponentID: args[0], Tag: args[1]}
			return withSession(cmd, rootOpts, func(s *session) error {
				return applyMutation(s, m, fmt.Sprintf("Added version %s@%s", m.ComponentID, m.Tag))
			})
		},
	}
}

// AddTestResultOptions holds flags for the add-test-result command.
type AddTestResultOptions struct {
	*RootOptions
	Description string
}

// NewAddTestResultCommand creates the add-test-result command.
func NewAddTestResultCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddTestResultOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add-test-result <setup-id> <status> <component-version-map>",
		Short: "Record the result of testing a setup",
		Long: `Record the result of testing a setup against concrete component versions.

The component-version map is a JSON object of component id to tag and must
name exactly the components of the setup.

Example:
  ledger add-test-result full-stack passed '{"api":"1.4.0","web":"2.0.1","db":"13.2.0"}'`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			versions, err := parseVersionMap(args[2])
			if err != nil {
				return WrapExitError(ExitFailure, "invalid component-version map", err)
			}
			m := ledger.AddTest{
				SetupID:             args[0],
				Status:              args[1],
				ComponentVersionMap: versions,
				Description:         opts.Description,
			}
			return withSession(cmd, opts.RootOptions, func(s *session) error {
				return applyMutation(s, m, fmt.Sprintf("Added test result %s - %s. Versions: %s",
					m.SetupID, m.Status, formatVersionMap(versions)))
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Description, "description", "d", "", "free-form note stored with the result")

	return cmd
}

func parseVersionMap(s string) (map[string]string, error) {
	var versions map[string]string
	if err := json.Unmarshal([]byte(s), &versions); err != nil {
		return nil, fmt.Errorf("expected a JSON object of component id to tag: %w", err)
	}
	return versions, nil
}

// formatVersionMap renders versions as "id@tag" pairs sorted by id.
func formatVersionMap(versions map[string]string) string {
	pairs := make([]string, 0, len(versions))
	for id, tag := range versions {
		pairs = append(pairs, id+"@"+tag)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ", ")
}
