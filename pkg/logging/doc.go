// Package logging builds the slog loggers used across restclient.
//
// Components accept a *slog.Logger in their constructor or through an
// option. When none is given they fall back to Nop, so library callers get
// silence by default and the CLI decides what is printed:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel("debug"),
//	    Format: logging.FormatJSON,
//	})
//	codec := archive.New(archive.WithLogger(logger))
//
// Tee combines handlers, which the CLI uses to mirror records into a log
// file while still printing to stderr.
package logging
