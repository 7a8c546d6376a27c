package archive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"

	"github.com/TanyaEf/rest-client/pkg/model"
)

// document is a serialized entry waiting in scratch storage.
type document struct {
	entry string
	file  string
}

// Pack writes req and resp as a container at dest.
//
// The container is first written to a temporary file in dest's directory
// and renamed over dest once complete, so dest either holds a full
// container or is left as it was.
func (c *Codec) Pack(ctx context.Context, req *model.Request, resp *model.Response, dest string) error {
	const op = "pack"

	docs, err := c.serialize(ctx, op, dest, req, resp)
	if err != nil {
		return err
	}
	defer c.discard(docs[0].file, docs[1].file)

	tmp, err := c.createTemp(tempName(dest))
	if err != nil {
		return newError(op, dest, ErrArchiveWrite, err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if committed {
			return
		}
		if err := os.Remove(tmpName); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("failed to remove partial archive", "file", tmpName, "error", err)
		}
	}()

	if err := c.writeEntries(ctx, tmp, docs); err != nil {
		_ = tmp.Close()
		return withPath(err, dest)
	}
	if err := tmp.Close(); err != nil {
		return newError(op, dest, ErrArchiveWrite, err)
	}
	// A replaced container keeps its mode; a new one gets newPerm less umask.
	if fi, err := os.Stat(dest); err == nil && fi.Mode().IsRegular() {
		if err := os.Chmod(tmpName, fi.Mode().Perm()); err != nil {
			return newError(op, dest, ErrArchiveWrite, err)
		}
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return newError(op, dest, ErrArchiveWrite, err)
	}
	committed = true

	c.logger.Debug("packed archive", "path", dest)
	return nil
}

// tempName returns a hidden, unique sibling of dest.
func tempName(dest string) string {
	return filepath.Join(filepath.Dir(dest), "."+filepath.Base(dest)+"."+uuid.NewString()+".tmp")
}

// PackTo writes req and resp as a container to w. On failure w may have
// received a partial container; callers writing to a file should use Pack.
func (c *Codec) PackTo(ctx context.Context, w io.Writer, req *model.Request, resp *model.Response) error {
	docs, err := c.serialize(ctx, "pack", "", req, resp)
	if err != nil {
		return err
	}
	defer c.discard(docs[0].file, docs[1].file)

	return c.writeEntries(ctx, w, docs)
}

// serialize encodes both halves into scratch documents. On failure nothing
// is left in scratch storage.
func (c *Codec) serialize(ctx context.Context, op, path string, req *model.Request, resp *model.Response) ([2]document, error) {
	var docs [2]document

	if err := ctx.Err(); err != nil {
		return docs, newError(op, path, ErrSerialization, err)
	}

	reqFile, err := c.writeDocument("req-", func(w io.Writer) error { return c.docs.EncodeRequest(w, req) })
	if err != nil {
		return docs, entryError(op, path, RequestEntry, ErrSerialization, err)
	}

	resFile, err := c.writeDocument("res-", func(w io.Writer) error { return c.docs.EncodeResponse(w, resp) })
	if err != nil {
		c.discard(reqFile)
		return docs, entryError(op, path, ResponseEntry, ErrSerialization, err)
	}

	docs[0] = document{entry: RequestEntry, file: reqFile}
	docs[1] = document{entry: ResponseEntry, file: resFile}
	return docs, nil
}

func (c *Codec) writeDocument(prefix string, encode func(io.Writer) error) (string, error) {
	f, err := c.scratch.Create(prefix, ".xml")
	if err != nil {
		return "", err
	}
	name := f.Name()

	if err := encode(f); err != nil {
		_ = f.Close()
		c.discard(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		c.discard(name)
		return "", err
	}
	return name, nil
}

// writeEntries streams each document into its own deflated entry, one entry
// at a time, then finalizes the container.
func (c *Codec) writeEntries(ctx context.Context, w io.Writer, docs [2]document) error {
	const op = "pack"

	zw := zip.NewWriter(w)
	buf := make([]byte, bufSize)
	modified := time.Now()

	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return entryError(op, "", d.entry, ErrArchiveWrite, err)
		}
		if err := c.copyEntry(zw, d, modified, buf); err != nil {
			return entryError(op, "", d.entry, ErrArchiveWrite, err)
		}
		c.logger.Debug("wrote archive entry", "entry", d.entry)
	}

	if err := zw.Close(); err != nil {
		return newError(op, "", ErrArchiveWrite, err)
	}
	return nil
}

func (c *Codec) copyEntry(zw *zip.Writer, d document, modified time.Time, buf []byte) error {
	ew, err := zw.CreateHeader(&zip.FileHeader{
		Name:     d.entry,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return err
	}

	src, err := c.scratch.Open(d.file)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	_, err = io.CopyBuffer(ew, src, buf)
	return err
}

// withPath fills in the container path on errors raised below Pack.
func withPath(err error, path string) error {
	var ae *Error
	if errors.As(err, &ae) && ae.Path == "" {
		ae.Path = path
	}
	return err
}
