// Package cli provides the command-line interface for restclient.
//
// The cli package implements the commands for working with request/response
// archives:
//   - pack: Bundle a saved request and response into an .rcc archive
//   - unpack: Show or extract the request and response of an archive
//   - inspect: List the entries of an archive
//   - status-code: Extract the status code from an HTTP status line
//   - charset: Extract the charset from a Content-Type value
//   - config: Write or display configuration
//   - version: Show restclient version
//
// Global flags (--config, --log-level, --log-format, --scratch-dir, --json)
// are resolved once per invocation, after the config file and RESTCLIENT_*
// environment variables.
package cli
