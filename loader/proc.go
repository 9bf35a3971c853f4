// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package loader

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
)

// ProcResolver resolves symbols by calling a vkGet*ProcAddr entry point
type ProcResolver struct {
	Entry uintptr
}

// Resolve implements Resolver
func (p ProcResolver) Resolve(scope uintptr, name string) uintptr {
	if p.Entry == 0 {
		return 0
	}
	cname := append([]byte(name), 0)
	addr, _, _ := purego.SyscallN(p.Entry, scope, uintptr(unsafe.Pointer(&cname[0])))
	runtime.KeepAlive(cname)
	return addr
}
