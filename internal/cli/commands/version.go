package commands

import (
	"fmt"
	"strings"

	"github.com/dannyboland/loql/internal/ingest"
	"github.com/dannyboland/loql/internal/objstore"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display loql version and the optional readers compiled into this build.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "loql v%s\n", version)

			readers := make([]string, 0)
			for _, c := range ingest.Available() {
				readers = append(readers, c.String())
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "readers: %s\n", strings.Join(readers, ", "))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "object storage: %t\n", objstore.Available())
		},
	}
}
