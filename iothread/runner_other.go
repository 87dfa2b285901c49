//go:build !linux

package iothread

func newRunner[R, T any](_ *Guard[R, T]) (runner, error) {
	return nil, ErrUnsupportedPlatform
}
