// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build windows

package loader

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

func libraryPaths() ([]string, []string) {
	var paths []string
	if sdk := os.Getenv("VULKAN_SDK"); sdk != "" {
		paths = append(paths, filepath.Join(sdk, "Bin"))
	}
	return []string{"vulkan-1.dll"}, paths
}

func joinPath(dir, name string) string {
	return filepath.Join(dir, name)
}

func openLibrary(name string) (uintptr, error) {
	h, err := windows.LoadLibrary(name)
	return uintptr(h), err
}

func lookupSymbol(handle uintptr, name string) (uintptr, error) {
	return windows.GetProcAddress(windows.Handle(handle), name)
}

func closeLibrary(handle uintptr) error {
	return windows.FreeLibrary(windows.Handle(handle))
}
