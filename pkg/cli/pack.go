package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TanyaEf/rest-client/pkg/archive"
	"github.com/TanyaEf/rest-client/pkg/cli/internal/output"
	"github.com/TanyaEf/rest-client/pkg/xmldoc"
)

func newPackCmd(a *app) *cobra.Command {
	var (
		requestPath  string
		responsePath string
		outputPath   string
		noValidate   bool
	)

	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Pack a saved request and response into an archive",
		Long: `Pack a saved request (.rcq) and response (.rcs) into a single archive.

The archive is written atomically: on failure the output path is left as it
was. Use -o - to write the archive to stdout.

Examples:
  # Pack a request/response pair
  restclient pack --request login.rcq --response login.rcs -o login.rcc

  # Stream the archive elsewhere
  restclient pack -q login.rcq -s login.rcs -o - | ssh host 'cat > login.rcc'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := xmldoc.ReadRequestFile(requestPath)
			if err != nil {
				return fmt.Errorf("failed to read request %s: %w", requestPath, err)
			}
			if !noValidate {
				if err := req.Validate(); err != nil {
					return err
				}
			}
			resp, err := xmldoc.ReadResponseFile(responsePath)
			if err != nil {
				return fmt.Errorf("failed to read response %s: %w", responsePath, err)
			}

			if outputPath == "-" {
				return a.codec.PackTo(cmd.Context(), cmd.OutOrStdout(), req, resp)
			}

			if err := a.codec.Pack(cmd.Context(), req, resp, outputPath); err != nil {
				return err
			}
			a.logger.Info("archive written", "path", outputPath)

			if a.jsonOutput {
				entries, err := a.codec.List(outputPath)
				if err != nil {
					return err
				}
				return output.JSON(cmd.OutOrStdout(), packResult{Archive: outputPath, Entries: entries})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Packed %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&requestPath, "request", "q", "", "Request document (.rcq)")
	cmd.Flags().StringVarP(&responsePath, "response", "s", "", "Response document (.rcs)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Archive to write ("+archive.Extension+"), or - for stdout")
	cmd.Flags().BoolVar(&noValidate, "no-validate", false, "Skip request validation")
	for _, name := range []string{"request", "response", "output"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

type packResult struct {
	Archive string              `json:"archive"`
	Entries []archive.EntryInfo `json:"entries"`
}

