// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build !linux && !darwin && !freebsd && !windows

package loader

import (
	"path"

	"github.com/cockroachdb/errors"
)

func libraryPaths() ([]string, []string) {
	return []string{"libvulkan.so.1"}, nil
}

func joinPath(dir, name string) string {
	return path.Join(dir, name)
}

func openLibrary(name string) (uintptr, error) {
	return 0, errors.Wrap(ErrLibraryNotFound, "platform not supported")
}

func lookupSymbol(handle uintptr, name string) (uintptr, error) {
	return 0, errors.Wrap(ErrSymbolNotFound, name)
}

func closeLibrary(handle uintptr) error {
	return nil
}
