// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/device/devicetest"
	"github.com/devblok/vkboot/loader"
)

var fakeWindow byte

func windowHandle() unsafe.Pointer {
	return unsafe.Pointer(&fakeWindow)
}

func instanceOn(t *testing.T, f *devicetest.Fake, extensions ...string) core.Instance {
	t.Helper()
	instance, err := core.CreateInstance(f, core.InstanceOptions{
		AvailableLayers:     f.Layers,
		AvailableExtensions: f.Extensions,
		DesiredExtensions:   extensions,
		ApplicationName:     "test",
	})
	require.NoError(t, err)
	return instance
}

type bootstrap struct {
	instance  core.Instance
	surface   device.Surface
	selection core.Selection
	device    device.Device
}

func deviceOn(t *testing.T, f *devicetest.Fake) bootstrap {
	t.Helper()
	var b bootstrap
	b.instance = instanceOn(t, f, loader.ExtensionSurface)

	surface, err := core.CreateSurface(f, b.instance.Handle, nil, windowHandle())
	require.NoError(t, err)
	b.surface = surface

	candidates, err := core.EnumeratePhysicalDevices(f, b.instance.Handle)
	require.NoError(t, err)

	b.selection, err = core.SelectPhysicalDevice(f, candidates, core.SelectOptions{
		Extensions: []string{loader.ExtensionSwapchain},
		QueueMasks: []device.QueueFlags{device.QueueGraphics},
		Surface:    surface,
	})
	require.NoError(t, err)

	b.device, err = core.CreateLogicalDevice(f, b.selection.PhysicalDevice, b.selection.Plan,
		[]string{loader.ExtensionSwapchain}, b.selection.Characteristics.Features)
	require.NoError(t, err)
	return b
}

func (b bootstrap) swapchainOptions(t *testing.T, f *devicetest.Fake) core.SwapchainOptions {
	t.Helper()
	modes, err := core.EnumeratePresentModes(f, b.selection.PhysicalDevice, b.surface)
	require.NoError(t, err)
	return core.SwapchainOptions{
		PhysicalDevice: b.selection.PhysicalDevice,
		Device:         b.device,
		Surface:        b.surface,
		PresentModes:   modes,
		PresentMode:    device.PresentModeFifo,
		Usage:          device.ImageUsageColorAttachment,
		Transform:      device.SurfaceTransformIdentity,
	}
}
