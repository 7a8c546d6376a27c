package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TanyaEf/rest-client/pkg/cli/internal/output"
	"github.com/TanyaEf/rest-client/pkg/httputil"
)

type statusCodeResult struct {
	StatusCode int `json:"statusCode"`
}

type charsetResult struct {
	Charset string `json:"charset"`
}

func newStatusCodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status-code <status line>",
		Short: "Print the status code of an HTTP status line",
		Long: `Print the status code of an HTTP status line, or -1 if the line is not one.

Examples:
  restclient status-code "HTTP/1.1 404 Not Found"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := httputil.StatusCodeFromStatusLine(strings.Join(args, " "))
			if a.jsonOutput {
				return output.JSON(cmd.OutOrStdout(), statusCodeResult{StatusCode: code})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
}

func newCharsetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "charset <content-type>",
		Short: "Print the charset of a Content-Type value",
		Long: `Print the charset parameter of a Content-Type value.
Nothing is printed when the value has no charset.

Examples:
  restclient charset "text/html; charset=ISO-8859-1"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			charset := httputil.CharsetFromContentType(strings.Join(args, " "))
			if a.jsonOutput {
				return output.JSON(cmd.OutOrStdout(), charsetResult{Charset: charset})
			}
			if charset != "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), charset)
			}
			return nil
		},
	}
}
