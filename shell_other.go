//go:build !windows && !linux

package notifyicon

// DefaultShell reports [ErrUnsupportedPlatform].
func DefaultShell() (Shell, error) {
	return nil, ErrUnsupportedPlatform
}

// LoadIconFile reports [ErrUnsupportedPlatform].
func LoadIconFile(path string) (Handle, error) {
	return 0, ErrUnsupportedPlatform
}
