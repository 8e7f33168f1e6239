package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ledger/internal/ledger"
)

// LatestOptions holds flags for the latest command.
type LatestOptions struct {
	*RootOptions
	Setup string
}

// NewLatestCommand creates the latest command.
func NewLatestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LatestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the latest version of each component",
		Long: `Show the highest recorded version of each component, by semantic
version precedence.

With --setup, only the components of that setup are shown; an unknown setup
is an error.

Example:
  ledger latest
  ledger latest --setup full-stack --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts.RootOptions, func(s *session) error {
				st, err := s.fetch()
				if err != nil {
					return err
				}
				latest, err := st.Document.LatestVersions(opts.Setup)
				if err != nil {
					return s.out.Fail("failed to resolve latest versions", err)
				}

				lines := make([]string, len(latest))
				for i, l := range latest {
					tag := "-"
					if l.Version != nil {
						tag = l.Version.Tag
					}
					lines[i] = l.ComponentID + "\t" + tag
				}
				return s.out.Success(latest, strings.Join(lines, "\n"), nil)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Setup, "setup", "s", "", "only components of this setup")

	return cmd
}

// NewVersionsCommand creates the versions command.
func NewVersionsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "versions <component-id>...",
		Short: "List every recorded version of components",
		Long: `List every recorded version of the given components, highest first.
Versions recorded more than once are listed more than once.

Example:
  ledger versions api web`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				st, err := s.fetch()
				if err != nil {
					return err
				}
				versions := st.Document.ComponentsVersions(args)

				lines := make([]string, len(args))
				for i, id := range args {
					lines[i] = fmt.Sprintf("%s: %s", id, strings.Join(versions[id], ", "))
				}
				return s.out.Success(versions, strings.Join(lines, "\n"), nil)
			})
		},
	}
}

// NewSetupComponentsCommand creates the setup-components command.
func NewSetupComponentsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "setup-components <setup-id>",
		Short: "List the components of a setup",
		Args:  cobra.ExactArgs(1),
		Long: `List the components of a setup, in ledger order.

Example:
  ledger setup-components full-stack`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				st, err := s.fetch()
				if err != nil {
					return err
				}
				components, warnings, err := st.Document.SetupComponents(args[0])
				if err != nil {
					return s.out.Fail("failed to list setup components", err)
				}
				for _, w := range warnings {
					s.logger.Warn(w.Message, "code", w.Code)
				}

				lines := make([]string, len(components))
				for i, c := range components {
					lines[i] = c.ID + "\t" + c.Name
				}
				return s.out.Success(components, strings.Join(lines, "\n"), warnings)
			})
		},
	}
}

// NewSetupTestsCommand creates the setup-tests command.
func NewSetupTestsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "setup-tests <setup-id>",
		Short: "List the test results of a setup",
		Long: `List the recorded test results of a setup, oldest first.

Example:
  ledger setup-tests full-stack --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				st, err := s.fetch()
				if err != nil {
					return err
				}
				tests := st.Document.SetupTests(args[0])

				lines := make([]string, len(tests))
				for i, t := range tests {
					lines[i] = formatTestResult(t)
				}
				return s.out.Success(tests, strings.Join(lines, "\n"), nil)
			})
		},
	}
}

// formatTestResult renders one result as a tab separated line:
// date, status, versions and the description if there is one.
func formatTestResult(t ledger.TestResult) string {
	fields := []string{
		time.UnixMilli(t.Date).UTC().Format(time.RFC3339),
		t.Status,
		formatVersionMap(t.ComponentVersionMap),
	}
	if t.Description != "" {
		fields = append(fields, t.Description)
	}
	return strings.Join(fields, "\t")
}
