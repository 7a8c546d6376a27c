package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/TanyaEf/rest-client/pkg/archive"
	"github.com/TanyaEf/rest-client/pkg/cli/internal/output"
	"github.com/TanyaEf/rest-client/pkg/httputil"
	"github.com/TanyaEf/rest-client/pkg/model"
	"github.com/TanyaEf/rest-client/pkg/xmldoc"
)

// errIncompleteOutput is returned when the request was replaced in --out-dir
// but the response could not be.
var errIncompleteOutput = errors.New("unpacked files are incomplete")

func newUnpackCmd(a *app) *cobra.Command {
	var (
		outDir      string
		previewSize int
	)

	cmd := &cobra.Command{
		Use:   "unpack <archive>",
		Short: "Unpack an archive into its request and response",
		Long: `Unpack an archive and show, or extract, the request and response it holds.

Without --out-dir a summary is printed. With --out-dir the documents are
written as request.rcq and response.rcs in that directory.

Examples:
  # Show what an archive holds
  restclient unpack login.rcc

  # Extract both documents
  restclient unpack login.rcc --out-dir ./login

  # Machine-readable output
  restclient unpack login.rcc --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pair, err := a.codec.Unpack(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if outDir != "" {
				return writePair(cmd.OutOrStdout(), outDir, pair)
			}
			if a.jsonOutput {
				return output.JSON(cmd.OutOrStdout(), pair)
			}
			printPair(cmd.OutOrStdout(), pair, previewSize)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out-dir", "", "Write request.rcq and response.rcs into this directory")
	cmd.Flags().IntVar(&previewSize, "preview", 2048, "Maximum body bytes to print")
	return cmd
}

// writePair stages both documents next to their targets and renames them
// into place only once both were written, so a failure leaves existing
// files in dir untouched.
func writePair(w io.Writer, dir string, pair *model.ReqRes) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	reqPath := filepath.Join(dir, archive.RequestEntry)
	resPath := filepath.Join(dir, archive.ResponseEntry)

	reqTmp, err := stageFile(reqPath, func(w io.Writer) error { return xmldoc.WriteRequest(w, pair.Request) })
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", reqPath, err)
	}
	resTmp, err := stageFile(resPath, func(w io.Writer) error { return xmldoc.WriteResponse(w, pair.Response) })
	if err != nil {
		_ = os.Remove(reqTmp)
		return fmt.Errorf("failed to write %s: %w", resPath, err)
	}

	if err := os.Rename(reqTmp, reqPath); err != nil {
		_ = os.Remove(reqTmp)
		_ = os.Remove(resTmp)
		return fmt.Errorf("failed to write %s: %w", reqPath, err)
	}
	if err := os.Rename(resTmp, resPath); err != nil {
		_ = os.Remove(resTmp)
		return fmt.Errorf("%w: %s: %w", errIncompleteOutput, resPath, err)
	}

	_, _ = fmt.Fprintf(w, "Wrote %s\nWrote %s\n", reqPath, resPath)
	return nil
}

// stageFile writes a hidden temporary sibling of path and returns its name.
func stageFile(path string, write func(io.Writer) error) (string, error) {
	name := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		return "", err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

func printPair(w io.Writer, pair *model.ReqRes, previewSize int) {
	req, resp := pair.Request, pair.Response

	_, _ = fmt.Fprintf(w, "Request:  %s %s (HTTP/%s)\n", req.Method, req.URL, req.HTTPVersion)
	printHeaders(w, req.Headers)
	if req.Body != nil && len(req.Body.Data) > 0 {
		_, _ = fmt.Fprintf(w, "  Body (%s):\n", httputil.FormatContentType(req.Body.ContentType, req.Body.Charset))
		printBody(w, req.Body.Data, req.Body.Charset, previewSize)
	}

	_, _ = fmt.Fprintf(w, "Response: %s (%v)\n", resp.StatusLine, resp.ExecutionTime)
	printHeaders(w, resp.Headers)
	if len(resp.Body) > 0 {
		_, _ = fmt.Fprintln(w, "  Body:")
		printBody(w, resp.Body, httputil.CharsetFromHeaders(resp.Headers), previewSize)
	}
	if tr := resp.TestResult; tr != nil {
		_, _ = fmt.Fprintf(w, "Tests:    %d run, %d failures, %d errors\n", tr.Runs, tr.Failures, tr.Errors)
	}
}

func printHeaders(w io.Writer, headers model.Headers) {
	for _, h := range headers {
		_, _ = fmt.Fprintf(w, "  %s: %s\n", h.Name, h.Value)
	}
}

func printBody(w io.Writer, body []byte, charset string, previewSize int) {
	text, err := httputil.DecodeBody(body, charset)
	if err != nil {
		output.Warn(w, "%v; showing raw bytes", err)
		text = string(body)
	}
	_, _ = fmt.Fprintf(w, "    %s\n", httputil.Preview(text, previewSize))
}
