package render

import "errors"

// ErrUnknownRenderer is returned by Registry.Get for unregistered names.
var ErrUnknownRenderer = errors.New("render: unknown renderer")

// ErrUnknownTheme is returned when a theme or variant is not available.
var ErrUnknownTheme = errors.New("render: unknown theme")
