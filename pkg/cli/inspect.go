package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TanyaEf/rest-client/pkg/archive"
	"github.com/TanyaEf/rest-client/pkg/cli/internal/output"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <archive>",
		Short: "List the entries of an archive",
		Long: `List the entries of an archive without decoding them.

A valid archive holds exactly request.rcq and response.rcs. Other entries
are reported with a warning; unpack ignores them.

Examples:
  restclient inspect login.rcc
  restclient inspect login.rcc --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.codec.List(args[0])
			if err != nil {
				return err
			}

			if a.jsonOutput {
				return output.JSON(cmd.OutOrStdout(), entries)
			}

			w := output.Table(cmd.OutOrStdout())
			_, _ = fmt.Fprintln(w, "NAME\tSIZE\tCOMPRESSED\tMETHOD\tMODIFIED")
			var haveReq, haveRes bool
			for _, e := range entries {
				_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n",
					e.Name, e.Size, e.CompressedSize, e.Method, e.Modified.Format(time.RFC3339))
				switch e.Name {
				case archive.RequestEntry:
					haveReq = true
				case archive.ResponseEntry:
					haveRes = true
				default:
					defer output.Warn(cmd.ErrOrStderr(), "unexpected entry %q", e.Name)
				}
			}
			_ = w.Flush()

			if !haveReq || !haveRes {
				output.Warn(cmd.ErrOrStderr(), "archive is incomplete and cannot be unpacked")
			}
			return nil
		},
	}
}
