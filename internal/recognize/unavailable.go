//go:build !tesseract

package recognize

// Available reports whether this binary was built with Tesseract support.
func Available() bool { return false }

// New always fails with ErrUnavailable in builds without the tesseract tag.
func New(opts Options) (Recognizer, error) {
	return nil, ErrUnavailable
}
