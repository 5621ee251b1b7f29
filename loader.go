package scannergen

import "github.com/goliatone/go-scannergen/pkg/bundle"

// NewLoader constructs a bundle loader. HTTP sources stay disabled unless
// bundle.WithHTTP is passed.
func NewLoader(options ...bundle.Option) *bundle.Loader {
	return bundle.NewLoader(options...)
}
