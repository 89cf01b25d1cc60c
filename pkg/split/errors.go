package split

import "errors"

var (
	// ErrConfig reports invalid split options.
	ErrConfig = errors.New("invalid configuration")
	// ErrImageDecode reports a source image that cannot be opened or decoded.
	ErrImageDecode = errors.New("decode source image")
	// ErrFileWrite reports a fragment that could not be saved.
	ErrFileWrite = errors.New("write fragment")
)
