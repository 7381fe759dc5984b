package commands

import (
	"github.com/spf13/cobra"

	"github.com/woskam/looker-studio-automation/internal/extraction"
	"github.com/woskam/looker-studio-automation/internal/files"
	"github.com/woskam/looker-studio-automation/internal/infrastructure"
)

func newCopySessionCommand(a *app) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "copy-session",
		Short: "Copy the signed-in session of a Chrome profile into the automation profile",
		Long: `Copies the cookie and login stores of an existing Chrome profile so the
dashboard export runs signed in. Close every Chrome window first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := infrastructure.WithComponent(a.logger, "session")
			fm := files.NewManager(a.paths.BaseDir, logger)

			report, err := extraction.CopySession(fm, source, a.cfg.Extraction.ProfileDir, logger)
			printSessionCopy(cmd.OutOrStdout(), report)
			return err
		},
	}

	cmd.Flags().StringVar(&source, "source", extraction.DefaultChromeProfile(), "Chrome profile to copy from")
	return cmd
}
