// Package privs restricts what the solving process may do.
package privs

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Sandbox installs a seccomp filter that denies spawning processes, network
// access and mount namespace changes for the rest of the process lifetime.
func Sandbox() error {
	if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
		return fmt.Errorf("set no_new_privs: %w", err)
	}
	if err := initSeccomp(seccompRules); err != nil {
		return fmt.Errorf("init seccomp: %w", err)
	}
	logrus.Debug("seccomp sandbox installed")
	return nil
}
