// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"reflect"
	"strings"
	"unsafe"

	vk "github.com/devblok/vulkan"
)

var bool32Type = reflect.TypeOf(vk.Bool32(0))

func safeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func safeStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, safeString(s))
	}
	return safe
}

// featuresFromVk packs the boolean fields of the driver struct, in declaration order
func featuresFromVk(f vk.PhysicalDeviceFeatures) Features {
	var set Features
	val := reflect.ValueOf(f)
	bit := uint(0)
	for i := 0; i < val.NumField() && bit < 64; i++ {
		field := val.Type().Field(i)
		if field.PkgPath != "" || field.Type != bool32Type {
			continue
		}
		if val.Field(i).Uint() != 0 {
			set |= 1 << bit
		}
		bit++
	}
	return set
}

func featuresToVk(set Features) vk.PhysicalDeviceFeatures {
	var f vk.PhysicalDeviceFeatures
	val := reflect.ValueOf(&f).Elem()
	bit := uint(0)
	for i := 0; i < val.NumField() && bit < 64; i++ {
		field := val.Type().Field(i)
		if field.PkgPath != "" || field.Type != bool32Type {
			continue
		}
		if set&(1<<bit) != 0 {
			val.Field(i).SetUint(uint64(vk.True))
		}
		bit++
	}
	return f
}

func extent2DFromVk(e vk.Extent2D) Extent2D {
	e.Deref()
	return Extent2D{Width: e.Width, Height: e.Height}
}

// handleToVk reinterprets a handle as the driver's pointer typed handle
// without converting the integer to a pointer
func handleToVk[T any](h uintptr) T {
	return *(*T)(unsafe.Pointer(&h))
}

func instanceToVk(h Instance) vk.Instance {
	return handleToVk[vk.Instance](uintptr(h))
}

func physicalDeviceToVk(h PhysicalDevice) vk.PhysicalDevice {
	return handleToVk[vk.PhysicalDevice](uintptr(h))
}

func deviceToVk(h Device) vk.Device {
	return handleToVk[vk.Device](uintptr(h))
}

func surfaceToVk(h Surface) vk.Surface {
	return handleToVk[vk.Surface](uintptr(h))
}

func swapchainToVk(h Swapchain) vk.Swapchain {
	return handleToVk[vk.Swapchain](uintptr(h))
}

func debugReportToVk(h DebugReport) vk.DebugReportCallback {
	return handleToVk[vk.DebugReportCallback](uintptr(h))
}

// InstanceToVk exposes the driver handle to windowing libraries that need it
func InstanceToVk(h Instance) vk.Instance {
	return instanceToVk(h)
}

// SurfaceFromVk wraps a driver surface handle
func SurfaceFromVk(s vk.Surface) Surface {
	return Surface(unsafe.Pointer(s))
}
