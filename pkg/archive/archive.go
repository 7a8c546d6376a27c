package archive

import (
	"io"
	"log/slog"
	"os"

	"github.com/TanyaEf/rest-client/pkg/logging"
	"github.com/TanyaEf/rest-client/pkg/model"
	"github.com/TanyaEf/rest-client/pkg/scratch"
	"github.com/TanyaEf/rest-client/pkg/xmldoc"
)

// Entry names inside a container.
const (
	RequestEntry  = "request.rcq"
	ResponseEntry = "response.rcs"
)

// Extension is the file extension conventionally used for containers.
const Extension = ".rcc"

const bufSize = 4 * 1024

// newPerm is the mode a new container is created with, before umask.
const newPerm = 0o666

// DocumentCodec turns requests and responses into documents and back.
type DocumentCodec interface {
	EncodeRequest(w io.Writer, req *model.Request) error
	DecodeRequest(r io.Reader) (*model.Request, error)
	EncodeResponse(w io.Writer, resp *model.Response) error
	DecodeResponse(r io.Reader) (*model.Response, error)
}

// tempFile is the part of *os.File Pack needs for the container it writes.
type tempFile interface {
	io.WriteCloser
	Name() string
}

// Codec packs and unpacks containers. It holds no per-call state, so one
// Codec may serve concurrent calls on distinct paths.
type Codec struct {
	scratch      scratch.Store
	docs         DocumentCodec
	logger       *slog.Logger
	maxEntrySize int64

	createTemp func(name string) (tempFile, error)
}

// Option configures a Codec.
type Option func(*Codec)

// WithScratch sets the store used for intermediate documents.
func WithScratch(s scratch.Store) Option {
	return func(c *Codec) { c.scratch = s }
}

// WithDocumentCodec replaces the XML document codec.
func WithDocumentCodec(d DocumentCodec) Option {
	return func(c *Codec) { c.docs = d }
}

// WithLogger sets the logger. Cleanup failures are logged at warn level,
// per-entry progress at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Codec) { c.logger = logging.OrNop(l) }
}

// WithMaxEntrySize rejects entries whose decompressed size exceeds n bytes.
// Zero means no limit.
func WithMaxEntrySize(n int64) Option {
	return func(c *Codec) { c.maxEntrySize = n }
}

// New creates a Codec. Without options it uses xmldoc.Codec and scratch
// files in os.TempDir().
func New(opts ...Option) *Codec {
	c := &Codec{
		docs:   xmldoc.Codec{},
		logger: logging.Nop(),
		createTemp: func(name string) (tempFile, error) {
			f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, newPerm)
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.scratch == nil {
		c.scratch = scratch.System()
	}
	return c
}

// discard removes scratch files, logging failures instead of returning them.
func (c *Codec) discard(names ...string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		if err := c.scratch.Remove(name); err != nil {
			c.logger.Warn("failed to remove scratch file", "file", name, "error", err)
		}
	}
}
