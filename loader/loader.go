// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package loader opens the Vulkan runtime and resolves its entry points into
// capability tables, one per tier (global, instance, device).
package loader

import (
	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrLibraryNotFound is returned when no runtime library could be opened
	ErrLibraryNotFound = errors.New("vulkan runtime library not found")
	// ErrSymbolNotFound is returned when a required symbol could not be resolved
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrSymbolNotLoaded is returned when a symbol is used before its tier was loaded
	ErrSymbolNotLoaded = errors.New("symbol not loaded")
)

// RootSymbol is the single entry point looked up in the library itself
const RootSymbol = "vkGetInstanceProcAddr"

// Tier names
const (
	TierGlobal   = "global"
	TierInstance = "instance"
	TierDevice   = "device"
)

// Library is an opened runtime library
type Library struct {
	name   string
	handle uintptr
}

// Load opens the first runtime library that can be found on this platform
func Load() (*Library, error) {
	names, paths := libraryPaths()
	for _, candidate := range candidates(names, paths) {
		handle, err := openLibrary(candidate)
		if err != nil {
			log.WithFields(log.Fields{
				"func":    "loader.Load",
				"library": candidate,
			}).Debug(err)
			continue
		}
		log.WithField("library", candidate).Info("vulkan runtime loaded")
		return &Library{name: candidate, handle: handle}, nil
	}
	return nil, errors.Wrapf(ErrLibraryNotFound, "tried %v", names)
}

// Name returns the path or name the library was opened by
func (l *Library) Name() string {
	return l.name
}

// RootEntryPoint resolves vkGetInstanceProcAddr from the library
func (l *Library) RootEntryPoint() (uintptr, error) {
	if l == nil || l.handle == 0 {
		return 0, errors.Wrap(ErrLibraryNotFound, "library is released")
	}
	addr, err := lookupSymbol(l.handle, RootSymbol)
	if err != nil || addr == 0 {
		log.WithFields(log.Fields{
			"func":    "loader.Library.RootEntryPoint",
			"library": l.name,
		}).Error("root entry point missing")
		return 0, errors.Wrapf(ErrSymbolNotFound, "%s in %s", RootSymbol, l.name)
	}
	return addr, nil
}

// Release unloads the library. Releasing a nil or already released library
// only logs a warning.
func (l *Library) Release() error {
	if l == nil || l.handle == 0 {
		log.WithField("func", "loader.Library.Release").Warn("library is not loaded")
		return nil
	}
	err := closeLibrary(l.handle)
	l.handle = 0
	return errors.Wrapf(err, "release %s", l.name)
}

// Loader owns the runtime library and the capability tables resolved from it
type Loader struct {
	library *Library
	root    uintptr

	instanceResolver Resolver
	deviceResolver   func(entry uintptr) Resolver

	tables Tables
}

// New creates a loader over arbitrary resolvers. The device resolver factory
// receives the resolved vkGetDeviceProcAddr address.
func New(root Resolver, device func(entry uintptr) Resolver) *Loader {
	return &Loader{
		instanceResolver: root,
		deviceResolver:   device,
	}
}

// FromEntryPoint creates a loader from an already known vkGetInstanceProcAddr,
// such as the one a windowing library hands out.
func FromEntryPoint(root uintptr) *Loader {
	l := New(ProcResolver{Entry: root}, func(entry uintptr) Resolver {
		return ProcResolver{Entry: entry}
	})
	l.root = root
	return l
}

// Open loads the runtime library, resolves the root entry point and the global tier
func Open() (*Loader, error) {
	lib, err := Load()
	if err != nil {
		return nil, err
	}
	root, err := lib.RootEntryPoint()
	if err != nil {
		_ = lib.Release()
		return nil, err
	}
	l := FromEntryPoint(root)
	l.library = lib
	if err := l.LoadGlobal(); err != nil {
		_ = lib.Release()
		return nil, err
	}
	return l, nil
}

// Root returns the vkGetInstanceProcAddr address, zero if the loader was built over resolvers
func (l *Loader) Root() uintptr {
	return l.root
}

// Tables returns the currently resolved capability tables
func (l *Loader) Tables() *Tables {
	return &l.tables
}

// LoadGlobal resolves the global tier
func (l *Loader) LoadGlobal() error {
	table, err := ResolveTier(TierGlobal, l.instanceResolver, 0, GlobalSymbols)
	if err != nil {
		return err
	}
	l.tables.Global = table
	return nil
}

// LoadInstance resolves the instance tier for the given instance and its
// enabled extensions. Any previously loaded device tier is dropped.
func (l *Loader) LoadInstance(instance uintptr, enabled []string) error {
	table, err := ResolveTier(TierInstance, l.instanceResolver, instance, InstanceSymbols)
	if err == nil {
		err = table.ResolveExtensionGated(l.instanceResolver, instance, InstanceSymbols, enabled)
	}
	if err != nil {
		l.loadInstanceDestructor(instance)
		return err
	}
	l.tables.Instance = table
	l.tables.Device = nil
	log.WithFields(log.Fields{
		"tier":    TierInstance,
		"symbols": table.Len(),
	}).Debug("tier resolved")
	return nil
}

// loadInstanceDestructor leaves an instance tier holding only vkDestroyInstance,
// so an instance whose tier failed can still be destroyed
func (l *Loader) loadInstanceDestructor(instance uintptr) {
	l.tables.Instance = nil
	l.tables.Device = nil
	table, err := ResolveTier(TierInstance, l.instanceResolver, instance, destructorSymbols)
	if err != nil {
		log.WithField("func", "loader.LoadInstance").Warn(err)
		return
	}
	l.tables.Instance = table
}

var destructorSymbols = []Symbol{{Name: "vkDestroyInstance"}}

// LoadDevice resolves the device tier through vkGetDeviceProcAddr
func (l *Loader) LoadDevice(device uintptr, enabled []string) error {
	entry, ok := l.tables.Instance.Lookup("vkGetDeviceProcAddr")
	if !ok {
		return errors.Wrap(ErrSymbolNotLoaded, "vkGetDeviceProcAddr")
	}
	r := l.deviceResolver(entry)
	table, err := ResolveTier(TierDevice, r, device, DeviceSymbols)
	if err != nil {
		return err
	}
	if err := table.ResolveExtensionGated(r, device, DeviceSymbols, enabled); err != nil {
		return err
	}
	l.tables.Device = table
	log.WithFields(log.Fields{
		"tier":    TierDevice,
		"symbols": table.Len(),
	}).Debug("tier resolved")
	return nil
}

// UnloadDevice drops the device tier after its device was destroyed
func (l *Loader) UnloadDevice() {
	l.tables.Device = nil
}

// Release drops every table and unloads the library if this loader opened it
func (l *Loader) Release() error {
	l.tables = Tables{}
	if l.library == nil {
		return nil
	}
	err := l.library.Release()
	l.library = nil
	return err
}

func candidates(names, paths []string) []string {
	out := make([]string, 0, len(names)*(len(paths)+1))
	for _, name := range names {
		for _, path := range paths {
			out = append(out, joinPath(path, name))
		}
		out = append(out, name)
	}
	return out
}
