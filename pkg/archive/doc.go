// Package archive packs a request and its response into a single zip
// container and reads them back.
//
// A container holds exactly two entries, request.rcq and response.rcs,
// each carrying the XML document produced by a DocumentCodec:
//
//	codec := archive.New(archive.WithLogger(logger))
//	if err := codec.Pack(ctx, req, resp, "login.rcc"); err != nil {
//	    return err
//	}
//	pair, err := codec.Unpack(ctx, "login.rcc")
//
// # Guarantees
//
// Pack never leaves a truncated container behind: the zip is written to a
// temporary file next to the destination and renamed into place only after
// it was closed successfully. An existing destination is left untouched on
// failure.
//
// Unpack returns both halves or an error, never a partial pair. Entries
// other than the two known names are read and ignored.
//
// Intermediate documents live in a scratch.Store and are removed before
// Pack or Unpack returns, whatever the outcome. Failing to remove one is
// logged and never replaces the error being returned.
//
// # Errors
//
// Every error returned is an *Error. Match the failure class with
// errors.Is against ErrSerialization, ErrDeserialization, ErrArchiveWrite,
// ErrArchiveRead, ErrNotFound or ErrIncompleteArchive.
package archive
