// Package platform detects the kernel, distribution and CPU of the host.
// Probing is read-only: it shells out to query commands and reads release
// files, and never touches the network.
package platform

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"

	"toolsmith/internal/execx"
)

// ErrUnsupportedOS is fatal: nothing can be installed on this kernel.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// Uname is the subset of uname(2) the prober needs.
type Uname struct {
	Sysname string
	Release string
	Machine string
}

// Prober answers environment questions. FS is rooted at "/" so release files
// are read as "etc/os-release".
type Prober struct {
	Runner execx.Runner
	FS     fs.FS
	Uname  func() (Uname, error)
}

// NewProber returns a prober for the real host.
func NewProber(r execx.Runner) Prober {
	return Prober{Runner: r, FS: os.DirFS("/"), Uname: hostUname}
}

// Probe gathers everything at once. Only an unsupported kernel is an error.
func (p Prober) Probe(ctx context.Context) (Info, error) {
	kernel, err := p.OS()
	if err != nil {
		return Info{}, err
	}
	info := Info{OS: kernel, Machine: p.machine(), ISA: p.ISA(), Width: p.WordWidth(ctx)}
	info.Family, info.Name, info.Version = p.Distro(ctx)
	return info, nil
}

// OS classifies the kernel name.
func (p Prober) OS() (OS, error) {
	u := p.uname()
	switch strings.ToLower(strings.TrimSpace(u.Sysname)) {
	case "linux":
		return OSLinux, nil
	case "darwin":
		return OSDarwin, nil
	case "freebsd":
		return OSFreeBSD, nil
	}
	return OSUnsupported, fmt.Errorf("%w %q: toolsmith supports Linux, macOS and FreeBSD; "+
		"install the Haskell tools by hand from https://www.haskell.org/downloads/", ErrUnsupportedOS, u.Sysname)
}

// Distro returns the distribution family, its reported name and version.
// Linux tries lsb_release, then /etc/os-release, then legacy banner files;
// when all of them fail the family is FamilyUnknown.
func (p Prober) Distro(ctx context.Context) (Family, string, string) {
	kernel, err := p.OS()
	if err != nil {
		return FamilyUnknown, "", ""
	}
	switch kernel {
	case OSDarwin:
		return FamilyDarwin, "macOS", p.darwinVersion(ctx)
	case OSFreeBSD:
		return FamilyFreeBSD, "FreeBSD", firstVersion(p.uname().Release)
	}

	strategies := []func(context.Context) (Family, string, string, bool){
		p.fromLSBRelease,
		p.fromOSRelease,
		p.fromBanner,
	}
	for _, strategy := range strategies {
		if family, name, version, ok := strategy(ctx); ok {
			return family, name, version
		}
	}
	return FamilyUnknown, "", ""
}

// ISA reports ARM when the machine string names an arm core, x86 otherwise.
func (p Prober) ISA() ISA {
	machine := strings.ToLower(p.machine())
	if strings.Contains(machine, "arm") || strings.Contains(machine, "aarch64") {
		return ISAARM
	}
	return ISAX86
}

// WordWidth asks getconf first and falls back to the machine-type suffix.
func (p Prober) WordWidth(ctx context.Context) int {
	if p.Runner != nil {
		if _, err := p.Runner.LookPath("getconf"); err == nil {
			res, err := p.Runner.Run(ctx, "getconf", []string{"LONG_BIT"}, execx.RunOptions{})
			if err == nil {
				switch strings.TrimSpace(string(res.Stdout)) {
				case "64":
					return 64
				case "32":
					return 32
				}
			}
		}
	}
	if strings.HasSuffix(p.machine(), "64") {
		return 64
	}
	return 32
}

func (p Prober) uname() Uname {
	if p.Uname == nil {
		return Uname{}
	}
	u, err := p.Uname()
	if err != nil {
		return Uname{}
	}
	return u
}

func (p Prober) machine() string {
	return strings.TrimSpace(p.uname().Machine)
}

func (p Prober) darwinVersion(ctx context.Context) string {
	out, ok := p.query(ctx, "sw_vers", "-productVersion")
	if !ok {
		return ""
	}
	return out
}

func (p Prober) fromLSBRelease(ctx context.Context) (Family, string, string, bool) {
	id, ok := p.query(ctx, "lsb_release", "-si")
	if !ok {
		return FamilyUnknown, "", "", false
	}
	family := Classify(id)
	if family == FamilyUnknown {
		return FamilyUnknown, "", "", false
	}
	release, _ := p.query(ctx, "lsb_release", "-sr")
	return family, id, firstVersion(release), true
}

func (p Prober) fromOSRelease(context.Context) (Family, string, string, bool) {
	for _, path := range []string{"etc/os-release", "usr/lib/os-release"} {
		data, err := fs.ReadFile(p.FS, path)
		if err != nil {
			continue
		}
		kv, err := ParseOSRelease(string(data))
		if err != nil {
			continue
		}
		candidates := []string{kv["ID"]}
		candidates = append(candidates, strings.Fields(kv["ID_LIKE"])...)
		candidates = append(candidates, kv["NAME"])
		for _, candidate := range candidates {
			if family := Classify(candidate); family != FamilyUnknown {
				name := kv["NAME"]
				if name == "" {
					name = kv["ID"]
				}
				return family, name, firstVersion(kv["VERSION_ID"]), true
			}
		}
	}
	return FamilyUnknown, "", "", false
}

type bannerFile struct {
	path   string
	family Family // FamilyUnknown means classify the contents
	name   string
}

var bannerFiles = []bannerFile{
	{path: "etc/centos-release"},
	{path: "etc/fedora-release"},
	{path: "etc/redhat-release"},
	{path: "etc/alpine-release", family: FamilyAlpine, name: "Alpine Linux"},
	{path: "etc/arch-release", family: FamilyArch, name: "Arch Linux"},
	{path: "etc/debian_version", family: FamilyDebian, name: "Debian"},
	{path: "etc/issue"},
}

func (p Prober) fromBanner(context.Context) (Family, string, string, bool) {
	for _, banner := range bannerFiles {
		data, err := fs.ReadFile(p.FS, banner.path)
		if err != nil {
			continue
		}
		line := firstLine(string(data))
		if banner.family != FamilyUnknown {
			return banner.family, banner.name, firstVersion(line), true
		}
		if family, version := ParseBanner(line); family != FamilyUnknown {
			return family, strings.TrimSpace(line), version, true
		}
	}
	return FamilyUnknown, "", "", false
}

func (p Prober) query(ctx context.Context, command string, args ...string) (string, bool) {
	if p.Runner == nil {
		return "", false
	}
	if _, err := p.Runner.LookPath(command); err != nil {
		return "", false
	}
	res, err := p.Runner.Run(ctx, command, args, execx.RunOptions{})
	if err != nil {
		return "", false
	}
	out := strings.Trim(strings.TrimSpace(string(res.Stdout)), `"`)
	return out, out != ""
}

type familyKeyword struct {
	keyword string
	family  Family
}

// Order matters: "red hat" must not be caught by a shorter keyword first.
var familyKeywords = []familyKeyword{
	{"ubuntu", FamilyDebian},
	{"debian", FamilyDebian},
	{"linuxmint", FamilyDebian},
	{"mint", FamilyDebian},
	{"raspbian", FamilyDebian},
	{"pop", FamilyDebian},
	{"fedora", FamilyFedora},
	{"centos", FamilyCentOS},
	{"red hat", FamilyCentOS},
	{"redhat", FamilyCentOS},
	{"rhel", FamilyCentOS},
	{"rocky", FamilyCentOS},
	{"almalinux", FamilyCentOS},
	{"ol", FamilyCentOS},
	{"oracle", FamilyCentOS},
	{"amzn", FamilyCentOS},
	{"amazon", FamilyCentOS},
	{"alpine", FamilyAlpine},
	{"arch", FamilyArch},
	{"manjaro", FamilyArch},
	{"endeavouros", FamilyArch},
}

// Classify maps a distribution name or ID to its family.
func Classify(name string) Family {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return FamilyUnknown
	}
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '/'
	})
	for _, kw := range familyKeywords {
		if strings.Contains(kw.keyword, " ") {
			if strings.Contains(lower, kw.keyword) {
				return kw.family
			}
			continue
		}
		for _, w := range words {
			if w == kw.keyword {
				return kw.family
			}
		}
	}
	return FamilyUnknown
}

// ParseBanner classifies a one-line release banner such as
// "CentOS release 6.10 (Final)" and extracts its version.
func ParseBanner(line string) (Family, string) {
	return Classify(line), firstVersion(line)
}

// ParseOSRelease parses the shell-style KEY=value format of os-release(5),
// quoting, escapes and comments included.
func ParseOSRelease(text string) (map[string]string, error) {
	kv, err := godotenv.Unmarshal(text)
	if err != nil {
		return nil, fmt.Errorf("parse os-release: %w", err)
	}
	return kv, nil
}

var versionRe = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)*`)

func firstVersion(text string) string {
	return versionRe.FindString(text)
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return text
}
