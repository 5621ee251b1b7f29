package bundle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/goliatone/go-scannergen/pkg/model"
)

// DefaultTimeout bounds remote fetches when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Option configures a Loader.
type Option func(*Loader)

// WithFS sets the file system used by FromFS sources.
func WithFS(files fs.FS) Option {
	return func(l *Loader) {
		l.fs = files
	}
}

// WithHTTP enables URL sources. A nil client gets a default one.
func WithHTTP(client *http.Client) Option {
	return func(l *Loader) {
		if client == nil {
			client = &http.Client{}
		}
		l.http = client
	}
}

// WithTimeout bounds each remote fetch.
func WithTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		l.timeout = timeout
	}
}

// Loader reads documents from files, an fs.FS or HTTP. HTTP is opt-in.
type Loader struct {
	fs      fs.FS
	http    *http.Client
	timeout time.Duration
}

// NewLoader constructs a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{timeout: DefaultTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Load fetches src and wraps it in a Document.
func (l *Loader) Load(ctx context.Context, src Source) (Document, error) {
	if src == nil {
		return Document{}, errors.New("bundle: source is nil")
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case SourceKindFile:
		data, err = loadFile(ctx, src.Location())
	case SourceKindFS:
		data, err = loadFromFS(ctx, l.fs, src.Location())
	case SourceKindURL:
		if l.http == nil {
			return Document{}, errors.New("bundle: http support disabled")
		}
		data, err = loadHTTP(ctx, l.http, src.Location(), l.timeout)
	default:
		err = fmt.Errorf("bundle: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return Document{}, fmt.Errorf("bundle: load %s: %w", src.Location(), err)
	}
	return NewDocument(src, data)
}

// LoadBundle loads and decodes a bundle in one step.
func (l *Loader) LoadBundle(ctx context.Context, src Source) (model.Bundle, error) {
	doc, err := l.Load(ctx, src)
	if err != nil {
		return model.Bundle{}, err
	}
	return Decode(doc)
}
