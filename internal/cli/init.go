package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// InitOutput is the JSON payload of the init command.
type InitOutput struct {
	Path    string `json:"path"`
	Created bool   `json:"created"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty ledger document",
		Long: `Create an empty ledger document in the configured store.

Does nothing if the document already exists.

Example:
  ledger init
  ledger init --config ledger.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				created, err := s.engine.Init(s.ctx)
				if err != nil {
					return s.out.Fail("failed to initialize ledger", err)
				}
				text := fmt.Sprintf("Ledger already exists at %s", s.engine.Path())
				if created {
					text = fmt.Sprintf("Initialized empty ledger at %s", s.engine.Path())
				}
				return s.out.Success(InitOutput{Path: s.engine.Path(), Created: created}, text, nil)
			})
		},
	}
}
