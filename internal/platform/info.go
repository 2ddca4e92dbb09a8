package platform

import (
	"fmt"
	"strconv"
	"strings"
)

// OS is the kernel family toolsmith runs on.
type OS int

const (
	OSUnsupported OS = iota
	OSLinux
	OSDarwin
	OSFreeBSD
)

func (o OS) String() string {
	switch o {
	case OSLinux:
		return "linux"
	case OSDarwin:
		return "darwin"
	case OSFreeBSD:
		return "freebsd"
	default:
		return "unsupported"
	}
}

// Family is the closed set of distributions the backend knows how to serve.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyDebian
	FamilyFedora
	FamilyCentOS
	FamilyAlpine
	FamilyArch
	FamilyFreeBSD
	FamilyDarwin
)

func (f Family) String() string {
	switch f {
	case FamilyDebian:
		return "debian"
	case FamilyFedora:
		return "fedora"
	case FamilyCentOS:
		return "centos"
	case FamilyAlpine:
		return "alpine"
	case FamilyArch:
		return "arch"
	case FamilyFreeBSD:
		return "freebsd"
	case FamilyDarwin:
		return "darwin"
	default:
		return "unknown"
	}
}

// ISA is the CPU instruction set family.
type ISA int

const (
	ISAX86 ISA = iota
	ISAARM
)

func (i ISA) String() string {
	if i == ISAARM {
		return "arm"
	}
	return "x86"
}

// Info is the probed description of the host. It is built once per run and
// passed around by value.
type Info struct {
	OS      OS
	Family  Family
	Name    string // distribution name as reported, e.g. "Ubuntu"
	Version string // distribution version, may be empty
	ISA     ISA
	Width   int // 32 or 64
	Machine string
}

// Major returns the leading numeric component of the distro version, or 0.
func (i Info) Major() int {
	head, _, _ := strings.Cut(i.Version, ".")
	n, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0
	}
	return n
}

func (i Info) String() string {
	name := i.Name
	if name == "" {
		name = i.Family.String()
	}
	if i.Version != "" {
		name += " " + i.Version
	}
	return fmt.Sprintf("%s (%s, %s/%d-bit)", name, i.OS, i.ISA, i.Width)
}
