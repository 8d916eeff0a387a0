//go:build windows

package pty

type unsupportedBackend struct{}

// NewOS returns a backend whose Open always fails with ErrUnsupported.
func NewOS() Backend {
	return unsupportedBackend{}
}

func (unsupportedBackend) Open(Size) (Master, Slave, error) {
	return nil, nil, ErrUnsupported
}
