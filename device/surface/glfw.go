// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build glfw

package surface

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/devblok/vulkan"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/devblok/vkboot/device"
)

// Platform creates surfaces for GLFW windows
type Platform struct{}

// New returns the platform this binary was built for
func New() Platform {
	return Platform{}
}

// Name of the windowing library
func (Platform) Name() string {
	return "glfw"
}

// CreateSurface implements device.SurfaceFactory. Window is a *glfw.Window,
// the display handle is not needed by GLFW.
func (Platform) CreateSurface(instance device.Instance, display, window unsafe.Pointer) (device.Surface, error) {
	if window == nil {
		return 0, errors.New("glfw: window is nil")
	}
	if instance == 0 {
		return 0, errors.New("glfw: instance is null")
	}

	srf, err := (*glfw.Window)(window).CreateWindowSurface(device.InstanceToVk(instance), nil)
	if err != nil {
		return 0, errors.Wrap(err, "glfw.Window.CreateWindowSurface()")
	}
	return device.SurfaceFromVk(vk.SurfaceFromPointer(srf)), nil
}

// RequiredExtensions lists the instance extensions GLFW needs for the window
func (Platform) RequiredExtensions(window unsafe.Pointer) []string {
	return (*glfw.Window)(window).GetRequiredInstanceExtensions()
}

// ProcAddr returns the vkGetInstanceProcAddr GLFW loaded
func (Platform) ProcAddr() uintptr {
	return uintptr(glfw.GetVulkanGetInstanceProcAddress())
}
