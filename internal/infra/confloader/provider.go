// Package confloader loads keva-server configuration.
package confloader

import "errors"

// ErrReadBytesNotSupported is returned when ReadBytes is called on the
// map provider.
var ErrReadBytesNotSupported = errors.New("confloader: ReadBytes not supported by map provider, use Read() instead")

// mapProvider is a koanf provider backed by an in-memory map. koanf
// calls Read for providers that serve structured data.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}
