// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build !glfw

package surface

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/devblok/vulkan"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/vkboot/device"
)

// Platform creates surfaces for SDL2 windows
type Platform struct{}

// New returns the platform this binary was built for
func New() Platform {
	return Platform{}
}

// Name of the windowing library
func (Platform) Name() string {
	return "sdl2"
}

// CreateSurface implements device.SurfaceFactory. Window is a *sdl.Window,
// the display handle is not needed by SDL.
func (Platform) CreateSurface(instance device.Instance, display, window unsafe.Pointer) (device.Surface, error) {
	if window == nil {
		return 0, errors.New("sdl2: window is nil")
	}
	if instance == 0 {
		return 0, errors.New("sdl2: instance is null")
	}

	srf, err := (*sdl.Window)(window).VulkanCreateSurface(device.InstanceToVk(instance))
	if err != nil {
		return 0, errors.Wrap(err, "sdl.Window.VulkanCreateSurface()")
	}
	return device.SurfaceFromVk(vk.SurfaceFromPointer(uintptr(srf))), nil
}

// RequiredExtensions lists the instance extensions SDL needs for the window
func (Platform) RequiredExtensions(window unsafe.Pointer) []string {
	return (*sdl.Window)(window).VulkanGetInstanceExtensions()
}

// ProcAddr returns the vkGetInstanceProcAddr SDL loaded
func (Platform) ProcAddr() uintptr {
	return uintptr(sdl.VulkanGetVkGetInstanceProcAddr())
}
