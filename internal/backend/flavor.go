package backend

import (
	"errors"
	"fmt"

	"toolsmith/internal/platform"
)

// ErrUnsupportedPlatform means no stack bindist exists for the host.
var ErrUnsupportedPlatform = errors.New("no stack binary distribution for this platform")

// Target is the coarse platform class driving package and bindist choices.
type Target int

const (
	TargetUnsupported Target = iota
	TargetDebian
	TargetFedora
	TargetCentOS
	TargetAlpine
	TargetFreeBSD
	TargetDarwin
)

// TargetFor maps a family onto its target. Arch and Unknown are unsupported.
func TargetFor(f platform.Family) Target {
	switch f {
	case platform.FamilyDebian:
		return TargetDebian
	case platform.FamilyFedora:
		return TargetFedora
	case platform.FamilyCentOS:
		return TargetCentOS
	case platform.FamilyAlpine:
		return TargetAlpine
	case platform.FamilyFreeBSD:
		return TargetFreeBSD
	case platform.FamilyDarwin:
		return TargetDarwin
	}
	return TargetUnsupported
}

// Flavor picks the stack bindist name for info. bestEffort is set when the
// host is a Linux family stack does not officially support; the caller
// warns and carries on.
func Flavor(info platform.Info) (flavor string, bestEffort bool, err error) {
	switch info.OS {
	case platform.OSDarwin:
		return "osx-x86_64", false, nil
	case platform.OSFreeBSD:
		if info.ISA == platform.ISAX86 && info.Width == 64 {
			return "freebsd-x86_64", false, nil
		}
		return "", false, fmt.Errorf("%w: freebsd %s/%d-bit", ErrUnsupportedPlatform, info.ISA, info.Width)
	case platform.OSLinux:
		return linuxFlavor(info)
	}
	return "", false, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, info.OS)
}

func linuxFlavor(info platform.Info) (string, bool, error) {
	target := TargetFor(info.Family)
	unsupported := target == TargetUnsupported

	if target == TargetCentOS && info.Major() == 6 && info.ISA == platform.ISAX86 && info.Width == 32 {
		return "linux-i386-gmp4", false, nil
	}

	switch {
	case info.ISA == platform.ISAARM && info.Width == 64:
		return "linux-aarch64", unsupported, nil
	case info.ISA == platform.ISAARM:
		return "linux-arm", unsupported, nil
	case info.Width == 64:
		return "linux-x86_64-static", unsupported, nil
	default:
		return "linux-i386", unsupported, nil
	}
}
