package notifyicon

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// NewID returns a random icon identity.
func NewID() uuid.UUID {
	return uuid.New()
}

// IDFromName returns an icon identity derived from the running executable
// and name. The same program gets the same identity for the same name on
// every start, which lets the shell keep user preferences (such as
// "always show") for the icon.
func IDFromName(name string) uuid.UUID {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}

	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(filepath.Base(exe)+"/"+name))
}
