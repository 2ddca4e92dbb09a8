//go:build !(linux || darwin || freebsd)

package platform

import "runtime"

func hostUname() (Uname, error) {
	return Uname{Sysname: runtime.GOOS, Machine: runtime.GOARCH}, nil
}
