//go:build !windows

package trash

// NewRecycleBin is only available on Windows
func NewRecycleBin() (Bin, error) {
	return nil, ErrUnsupported
}
