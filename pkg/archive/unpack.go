package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/TanyaEf/rest-client/pkg/model"
)

// Unpack reads the container at src and returns the request and response
// it holds. Both are non-nil when err is nil.
func (c *Codec) Unpack(ctx context.Context, src string) (*model.ReqRes, error) {
	const op = "unpack"

	f, size, err := openContainer(op, src)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	pair, err := c.unpack(ctx, f, size)
	if err != nil {
		return nil, withPath(err, src)
	}
	c.logger.Debug("unpacked archive", "path", src)
	return pair, nil
}

// UnpackFrom reads a container of the given size from r.
func (c *Codec) UnpackFrom(ctx context.Context, r io.ReaderAt, size int64) (*model.ReqRes, error) {
	return c.unpack(ctx, r, size)
}

func openContainer(op, path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, newError(op, path, ErrNotFound, err)
		}
		return nil, 0, newError(op, path, ErrArchiveRead, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, newError(op, path, ErrArchiveRead, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, 0, newError(op, path, ErrArchiveRead, errors.New("is a directory"))
	}
	return f, info.Size(), nil
}

func (c *Codec) unpack(ctx context.Context, r io.ReaderAt, size int64) (*model.ReqRes, error) {
	const op = "unpack"

	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, newError(op, "", ErrArchiveRead, err)
	}

	var pair model.ReqRes
	buf := make([]byte, bufSize)

	for _, zf := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, entryError(op, "", zf.Name, ErrArchiveRead, err)
		}
		if err := c.readEntry(zf, &pair, buf); err != nil {
			return nil, err
		}
	}

	if pair.Request == nil || pair.Response == nil {
		return nil, newError(op, "", ErrIncompleteArchive, missingEntries(pair.Request != nil, pair.Response != nil))
	}
	return &pair, nil
}

// readEntry copies one entry into a fresh scratch file, decodes it if it is
// one of the known entries, and removes the scratch file before returning.
func (c *Codec) readEntry(zf *zip.File, pair *model.ReqRes, buf []byte) error {
	const op = "unpack"

	if c.maxEntrySize > 0 && zf.UncompressedSize64 > uint64(c.maxEntrySize) {
		return entryError(op, "", zf.Name, ErrArchiveRead,
			fmt.Errorf("entry size %d exceeds limit %d", zf.UncompressedSize64, c.maxEntrySize))
	}

	// The entry name is untrusted; it never reaches the scratch file name.
	tmp, err := c.scratch.Create("entry-", "")
	if err != nil {
		return entryError(op, "", zf.Name, ErrArchiveRead, err)
	}
	name := tmp.Name()
	defer c.discard(name)

	if err := c.extract(zf, tmp, buf); err != nil {
		_ = tmp.Close()
		return entryError(op, "", zf.Name, ErrArchiveRead, err)
	}
	if err := tmp.Close(); err != nil {
		return entryError(op, "", zf.Name, ErrArchiveRead, err)
	}

	switch zf.Name {
	case RequestEntry:
		req, err := decodeFile(c, name, c.docs.DecodeRequest)
		if err != nil {
			return entryError(op, "", zf.Name, ErrDeserialization, err)
		}
		pair.Request = req
	case ResponseEntry:
		resp, err := decodeFile(c, name, c.docs.DecodeResponse)
		if err != nil {
			return entryError(op, "", zf.Name, ErrDeserialization, err)
		}
		pair.Response = resp
	default:
		c.logger.Debug("ignoring unknown archive entry", "entry", zf.Name)
	}
	return nil
}

func (c *Codec) extract(zf *zip.File, w io.Writer, buf []byte) error {
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	var src io.Reader = rc
	if c.maxEntrySize > 0 {
		// The header size can lie; cap what is actually inflated.
		src = io.LimitReader(rc, c.maxEntrySize+1)
	}
	n, err := io.CopyBuffer(w, src, buf)
	if err != nil {
		return err
	}
	if c.maxEntrySize > 0 && n > c.maxEntrySize {
		return fmt.Errorf("entry exceeds limit %d", c.maxEntrySize)
	}
	return nil
}

func decodeFile[T any](c *Codec, name string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T
	rc, err := c.scratch.Open(name)
	if err != nil {
		return zero, err
	}
	defer func() { _ = rc.Close() }()

	v, err := decode(rc)
	if err != nil {
		return zero, err
	}
	return v, nil
}

// EntryInfo describes one entry of a container.
type EntryInfo struct {
	Name           string    `json:"name"`
	Size           uint64    `json:"size"`
	CompressedSize uint64    `json:"compressedSize"`
	Method         string    `json:"method"`
	Modified       time.Time `json:"modified"`
}

// List returns the entries of the container at path in container order.
func (c *Codec) List(path string) ([]EntryInfo, error) {
	const op = "list"

	f, size, err := openContainer(op, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	zr, err := zip.NewReader(f, size)
	if err != nil {
		return nil, newError(op, path, ErrArchiveRead, err)
	}

	entries := make([]EntryInfo, 0, len(zr.File))
	for _, zf := range zr.File {
		entries = append(entries, EntryInfo{
			Name:           zf.Name,
			Size:           zf.UncompressedSize64,
			CompressedSize: zf.CompressedSize64,
			Method:         methodName(zf.Method),
			Modified:       zf.Modified,
		})
	}
	return entries, nil
}

func methodName(m uint16) string {
	switch m {
	case zip.Store:
		return "store"
	case zip.Deflate:
		return "deflate"
	default:
		return fmt.Sprintf("method-%d", m)
	}
}
