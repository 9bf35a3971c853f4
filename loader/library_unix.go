// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build linux || darwin || freebsd

package loader

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/ebitengine/purego"
)

func libraryPaths() ([]string, []string) {
	var names, paths []string
	switch runtime.GOOS {
	case "darwin":
		names = []string{"libvulkan.1.dylib", "libvulkan.dylib", "libMoltenVK.dylib"}
		paths = []string{"/usr/local/lib", "/opt/homebrew/lib"}
	default:
		names = []string{"libvulkan.so.1", "libvulkan.so"}
	}
	if sdk := os.Getenv("VULKAN_SDK"); sdk != "" {
		paths = append([]string{filepath.Join(sdk, "lib")}, paths...)
	}
	return names, paths
}

func joinPath(dir, name string) string {
	return filepath.Join(dir, name)
}

func openLibrary(name string) (uintptr, error) {
	return purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

func lookupSymbol(handle uintptr, name string) (uintptr, error) {
	return purego.Dlsym(handle, name)
}

func closeLibrary(handle uintptr) error {
	return purego.Dlclose(handle)
}
