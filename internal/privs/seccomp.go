package privs

import (
	"fmt"

	seccomp "github.com/seccomp/libseccomp-golang"
	"golang.org/x/sys/unix"
)

type seccompRule struct {
	names []string
	act   seccomp.ScmpAction
}

var (
	actDeny = seccomp.ActErrno.SetReturnCode(int16(unix.EPERM))

	// The solver only needs to compute and write checkpoint files.
	seccompRules = []seccompRule{
		{
			names: []string{"execve", "execveat", "ptrace", "process_vm_readv", "process_vm_writev"},
			act:   actDeny,
		},
		{
			names: []string{"socket", "socketpair", "connect", "bind", "listen", "accept", "accept4"},
			act:   actDeny,
		},
		{
			names: []string{"mount", "umount2", "pivot_root", "chroot", "setns", "unshare"},
			act:   actDeny,
		},
	}
)

func initSeccomp(rules []seccompRule) error {
	filter, err := seccomp.NewFilter(seccomp.ActAllow)
	if err != nil {
		return err
	}
	defer filter.Release()
	if err := filter.SetNoNewPrivsBit(true); err != nil {
		return err
	}
	for _, rule := range rules {
		for _, name := range rule.names {
			call, err := seccomp.GetSyscallFromName(name)
			if err != nil {
				// not every architecture has every syscall
				continue
			}
			if err := filter.AddRule(call, rule.act); err != nil {
				return fmt.Errorf("add rule %s: %w", name, err)
			}
		}
	}
	if err := filter.Load(); err != nil {
		return err
	}
	return nil
}
