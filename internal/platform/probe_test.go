package platform

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"toolsmith/internal/execx/exectest"
)

func linuxUname(machine string) func() (Uname, error) {
	return func() (Uname, error) {
		return Uname{Sysname: "Linux", Release: "5.15.0", Machine: machine}, nil
	}
}

func TestParseBannerResolvesFamilies(t *testing.T) {
	cases := []struct {
		banner  string
		family  Family
		version string
	}{
		{"Ubuntu 20.04", FamilyDebian, "20.04"},
		{"Debian GNU/Linux 11", FamilyDebian, "11"},
		{"CentOS release 6.10 (Final)", FamilyCentOS, "6.10"},
		{"Arch Linux", FamilyArch, ""},
		{"Fedora release 38 (Thirty Eight)", FamilyFedora, "38"},
		{"Red Hat Enterprise Linux Server release 7.9 (Maipo)", FamilyCentOS, "7.9"},
		{"Welcome to Alpine Linux 3.17", FamilyAlpine, "3.17"},
		{"Gentoo Base System release 2.14", FamilyUnknown, "2.14"},
	}
	for _, tc := range cases {
		family, version := ParseBanner(tc.banner)
		if family != tc.family || version != tc.version {
			t.Errorf("ParseBanner(%q) = (%s, %q), want (%s, %q)", tc.banner, family, version, tc.family, tc.version)
		}
	}
}

func TestDistroPrefersLSBRelease(t *testing.T) {
	runner := exectest.New(map[string]string{"lsb_release": "/usr/bin/lsb_release"})
	runner.On("lsb_release -si", exectest.Response{Stdout: "Ubuntu\n"})
	runner.On("lsb_release -sr", exectest.Response{Stdout: "20.04\n"})

	p := Prober{
		Runner: runner,
		FS:     fstest.MapFS{"etc/os-release": {Data: []byte("ID=fedora\nVERSION_ID=38\n")}},
		Uname:  linuxUname("x86_64"),
	}
	family, name, version := p.Distro(context.Background())
	if family != FamilyDebian || name != "Ubuntu" || version != "20.04" {
		t.Fatalf("unexpected distro: %s %q %q", family, name, version)
	}
}

func TestDistroFallsBackToOSRelease(t *testing.T) {
	osRelease := `NAME="Rocky Linux"
ID="rocky"
ID_LIKE="rhel centos fedora"
VERSION_ID="8.9"
`
	p := Prober{
		Runner: exectest.New(nil),
		FS:     fstest.MapFS{"etc/os-release": {Data: []byte(osRelease)}},
		Uname:  linuxUname("x86_64"),
	}
	family, name, version := p.Distro(context.Background())
	if family != FamilyCentOS || name != "Rocky Linux" || version != "8.9" {
		t.Fatalf("unexpected distro: %s %q %q", family, name, version)
	}
}

func TestParseOSReleaseQuotingAndComments(t *testing.T) {
	text := "# managed by the image builder\n" +
		"NAME='Alpine Linux'\n" +
		"PRETTY_NAME=\"Foo \\\"Bar\\\" 1.0\"\n" +
		"\n" +
		"VERSION_ID=3.19.1\n"
	kv, err := ParseOSRelease(text)
	if err != nil {
		t.Fatalf("ParseOSRelease: %v", err)
	}
	want := map[string]string{
		"NAME":        "Alpine Linux",
		"PRETTY_NAME": `Foo "Bar" 1.0`,
		"VERSION_ID":  "3.19.1",
	}
	for key, value := range want {
		if kv[key] != value {
			t.Errorf("%s = %q, want %q", key, kv[key], value)
		}
	}
	if _, ok := kv["# managed by the image builder"]; ok {
		t.Fatal("comment parsed as a key")
	}
}

func TestDistroUsesIDLikeWhenIDUnknown(t *testing.T) {
	osRelease := "ID=neon\nID_LIKE=\"ubuntu debian\"\nVERSION_ID=\"22.04\"\n"
	p := Prober{
		Runner: exectest.New(nil),
		FS:     fstest.MapFS{"etc/os-release": {Data: []byte(osRelease)}},
		Uname:  linuxUname("x86_64"),
	}
	family, _, version := p.Distro(context.Background())
	if family != FamilyDebian || version != "22.04" {
		t.Fatalf("unexpected distro: %s %q", family, version)
	}
}

func TestDistroFallsBackToLegacyBanner(t *testing.T) {
	p := Prober{
		Runner: exectest.New(nil),
		FS: fstest.MapFS{
			"etc/redhat-release": {Data: []byte("CentOS release 6.10 (Final)\n")},
		},
		Uname: linuxUname("i686"),
	}
	family, _, version := p.Distro(context.Background())
	if family != FamilyCentOS || version != "6.10" {
		t.Fatalf("unexpected distro: %s %q", family, version)
	}
}

func TestDistroArchReleaseHasNoVersion(t *testing.T) {
	p := Prober{
		Runner: exectest.New(nil),
		FS:     fstest.MapFS{"etc/arch-release": {Data: []byte("")}},
		Uname:  linuxUname("x86_64"),
	}
	family, name, version := p.Distro(context.Background())
	if family != FamilyArch || name != "Arch Linux" || version != "" {
		t.Fatalf("unexpected distro: %s %q %q", family, name, version)
	}
}

func TestDistroUnknownWhenNothingMatches(t *testing.T) {
	p := Prober{Runner: exectest.New(nil), FS: fstest.MapFS{}, Uname: linuxUname("x86_64")}
	family, _, _ := p.Distro(context.Background())
	if family != FamilyUnknown {
		t.Fatalf("expected unknown family, got %s", family)
	}
}

func TestDistroForDarwinAndFreeBSD(t *testing.T) {
	runner := exectest.New(map[string]string{"sw_vers": "/usr/bin/sw_vers"})
	runner.On("sw_vers -productVersion", exectest.Response{Stdout: "14.4.1\n"})
	mac := Prober{Runner: runner, FS: fstest.MapFS{}, Uname: func() (Uname, error) {
		return Uname{Sysname: "Darwin", Machine: "arm64"}, nil
	}}
	if family, _, version := mac.Distro(context.Background()); family != FamilyDarwin || version != "14.4.1" {
		t.Fatalf("unexpected darwin distro: %s %q", family, version)
	}

	bsd := Prober{Runner: exectest.New(nil), FS: fstest.MapFS{}, Uname: func() (Uname, error) {
		return Uname{Sysname: "FreeBSD", Release: "13.2-RELEASE", Machine: "amd64"}, nil
	}}
	if family, _, version := bsd.Distro(context.Background()); family != FamilyFreeBSD || version != "13.2" {
		t.Fatalf("unexpected freebsd distro: %s %q", family, version)
	}
}

func TestOSUnsupportedIsFatal(t *testing.T) {
	p := Prober{Uname: func() (Uname, error) { return Uname{Sysname: "SunOS"}, nil }}
	kernel, err := p.OS()
	if kernel != OSUnsupported || !errors.Is(err, ErrUnsupportedOS) {
		t.Fatalf("expected unsupported os error, got %s %v", kernel, err)
	}
	if _, err := p.Probe(context.Background()); !errors.Is(err, ErrUnsupportedOS) {
		t.Fatalf("expected Probe to fail, got %v", err)
	}
}

func TestISA(t *testing.T) {
	cases := map[string]ISA{
		"x86_64":  ISAX86,
		"i686":    ISAX86,
		"aarch64": ISAARM,
		"armv7l":  ISAARM,
		"arm64":   ISAARM,
	}
	for machine, want := range cases {
		p := Prober{Uname: linuxUname(machine)}
		if got := p.ISA(); got != want {
			t.Errorf("ISA(%s) = %s, want %s", machine, got, want)
		}
	}
}

func TestWordWidthPrefersGetconf(t *testing.T) {
	runner := exectest.New(map[string]string{"getconf": "/usr/bin/getconf"})
	runner.On("getconf LONG_BIT", exectest.Response{Stdout: "32\n"})
	p := Prober{Runner: runner, Uname: linuxUname("x86_64")}
	if got := p.WordWidth(context.Background()); got != 32 {
		t.Fatalf("expected getconf answer 32, got %d", got)
	}
}

func TestWordWidthFallsBackToMachineSuffix(t *testing.T) {
	for machine, want := range map[string]int{"x86_64": 64, "aarch64": 64, "i686": 32, "armv7l": 32} {
		p := Prober{Runner: exectest.New(nil), Uname: linuxUname(machine)}
		if got := p.WordWidth(context.Background()); got != want {
			t.Errorf("WordWidth(%s) = %d, want %d", machine, got, want)
		}
	}
}

func TestProbeIsRepeatable(t *testing.T) {
	p := Prober{
		Runner: exectest.New(nil),
		FS:     fstest.MapFS{"etc/debian_version": {Data: []byte("11.6\n")}},
		Uname:  linuxUname("x86_64"),
	}
	first, err := p.Probe(context.Background())
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	second, err := p.Probe(context.Background())
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if first != second {
		t.Fatalf("probe not repeatable: %+v vs %+v", first, second)
	}
	if first.Family != FamilyDebian || first.Major() != 11 || first.Width != 64 || first.ISA != ISAX86 {
		t.Fatalf("unexpected info: %+v", first)
	}
}
