// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package devicetest provides a scripted device.Driver for tests
package devicetest

import (
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/loader"
)

// GPU is one scripted physical device
type GPU struct {
	Properties    device.PhysicalDeviceProperties
	Features      device.Features
	Extensions    []device.ExtensionProperties
	QueueFamilies []device.QueueFamilyProperties
	// PresentFamilies are the family indices that can present to any surface
	PresentFamilies []uint32
}

// Fake is a device.Driver with scripted answers. Calls are gated by real
// capability tables so a call made before its tier was loaded fails the same
// way it does against the runtime.
type Fake struct {
	Layers     []device.LayerProperties
	Extensions []device.ExtensionProperties
	GPUs       []GPU

	SurfaceCapabilities device.SurfaceCapabilities
	SurfaceFormats      []device.SurfaceFormat
	PresentModes        []device.PresentMode
	// SwapchainImages is the number of images a new swapchain reports,
	// MinImageCount of the create info when zero
	SwapchainImages uint32

	// Fail makes the named entry point return the status on every call
	Fail map[string]device.Result
	// FailFill makes only the filling half of a two-call enumeration fail
	FailFill map[string]device.Result
	// Missing lists symbols the fake runtime cannot resolve
	Missing map[string]bool

	// Calls counts invocations per entry point, Log keeps their order
	Calls map[string]int
	Log   []string

	InstanceInfo  *device.InstanceCreateInfo
	DeviceInfo    *device.DeviceCreateInfo
	SwapchainInfo *device.SwapchainCreateInfo
	Debug         device.DebugFunc

	LiveInstance   device.Instance
	LiveDevice     device.Device
	LiveSurface    device.Surface
	LiveSwapchains map[device.Swapchain]bool
	Destroyed      []string

	loader *loader.Loader
	handle uintptr
}

// New creates an empty fake with its global tier loaded
func New() *Fake {
	f := &Fake{
		Fail:           map[string]device.Result{},
		FailFill:       map[string]device.Result{},
		Missing:        map[string]bool{},
		Calls:          map[string]int{},
		LiveSwapchains: map[device.Swapchain]bool{},
		handle:         0x1000,
	}
	resolver := loader.ResolverFunc(f.resolve)
	f.loader = loader.New(resolver, func(uintptr) loader.Resolver {
		return resolver
	})
	if err := f.loader.LoadGlobal(); err != nil {
		panic(err)
	}
	return f
}

// Default creates a fake with one capable GPU, a presentable surface and the
// usual instance layers and extensions
func Default() *Fake {
	f := New()
	f.Layers = []device.LayerProperties{
		{Name: "VK_LAYER_KHRONOS_validation", SpecVersion: device.MakeVersion(1, 1, 0), Description: "validation"},
	}
	f.Extensions = []device.ExtensionProperties{
		{Name: loader.ExtensionSurface, SpecVersion: 25},
		{Name: loader.ExtensionXcbSurface, SpecVersion: 6},
		{Name: loader.ExtensionDebugReport, SpecVersion: 9},
	}
	f.GPUs = []GPU{DiscreteGPU("Fake GPU")}
	f.SurfaceCapabilities = device.SurfaceCapabilities{
		MinImageCount:           2,
		MaxImageCount:           8,
		CurrentExtent:           device.Extent2D{Width: 800, Height: 600},
		MinImageExtent:          device.Extent2D{Width: 1, Height: 1},
		MaxImageExtent:          device.Extent2D{Width: 4096, Height: 4096},
		MaxImageArrayLayers:     1,
		SupportedTransforms:     device.SurfaceTransformIdentity,
		CurrentTransform:        device.SurfaceTransformIdentity,
		SupportedCompositeAlpha: device.CompositeAlphaOpaque,
		SupportedUsageFlags:     device.ImageUsageColorAttachment | device.ImageUsageTransferDst,
	}
	f.SurfaceFormats = []device.SurfaceFormat{
		{Format: device.FormatB8G8R8A8Srgb, ColorSpace: device.ColorSpaceSrgbNonlinear},
		{Format: device.FormatB8G8R8A8Unorm, ColorSpace: device.ColorSpaceSrgbNonlinear},
	}
	f.PresentModes = []device.PresentMode{device.PresentModeFifo, device.PresentModeMailbox}
	return f
}

// DiscreteGPU returns a GPU with a universal family that presents and a
// transfer only family
func DiscreteGPU(name string) GPU {
	return GPU{
		Properties: device.PhysicalDeviceProperties{
			APIVersion: device.MakeVersion(1, 1, 0),
			VendorID:   0x10de,
			DeviceID:   0x1c03,
			Type:       device.PhysicalDeviceTypeDiscreteGPU,
			Name:       name,
		},
		Features: device.FeatureSamplerAnisotropy | device.FeatureGeometryShader,
		Extensions: []device.ExtensionProperties{
			{Name: loader.ExtensionSwapchain, SpecVersion: 70},
		},
		QueueFamilies: []device.QueueFamilyProperties{
			{Flags: device.QueueGraphics | device.QueueCompute | device.QueueTransfer, Count: 4},
			{Flags: device.QueueTransfer, Count: 1},
		},
		PresentFamilies: []uint32{0},
	}
}

func (f *Fake) resolve(scope uintptr, name string) uintptr {
	if f.Missing[name] {
		return 0
	}
	f.handle++
	return f.handle
}

func (f *Fake) nextHandle() uintptr {
	f.handle++
	return f.handle
}

func (f *Fake) call(name string) error {
	f.Calls[name]++
	f.Log = append(f.Log, name)
	if _, err := f.loader.Tables().Require(name); err != nil {
		return err
	}
	if res, ok := f.Fail[name]; ok {
		return device.Error(res)
	}
	return nil
}

func fill[T any](f *Fake, name string, count *uint32, out []T, src []T) error {
	if out == nil {
		*count = uint32(len(src))
		return nil
	}
	if res, ok := f.FailFill[name]; ok {
		return device.Error(res)
	}
	n := int(*count)
	if n > len(out) {
		n = len(out)
	}
	n = copy(out[:n], src)
	*count = uint32(n)
	if n < len(src) {
		return device.Error(device.Incomplete)
	}
	return nil
}

func (f *Fake) gpu(pd device.PhysicalDevice) (*GPU, error) {
	idx := int(pd) - 0x100
	if idx < 0 || idx >= len(f.GPUs) {
		return nil, errors.Newf("unknown physical device %#x", uintptr(pd))
	}
	return &f.GPUs[idx], nil
}

// Handle returns the physical device handle of the i-th GPU
func Handle(i int) device.PhysicalDevice {
	return device.PhysicalDevice(0x100 + i)
}

// Tables implements device.Driver
func (f *Fake) Tables() *loader.Tables {
	return f.loader.Tables()
}

// LoadInstanceFunctions implements device.Driver
func (f *Fake) LoadInstanceFunctions(instance device.Instance, extensions []string) error {
	return f.loader.LoadInstance(uintptr(instance), extensions)
}

// LoadDeviceFunctions implements device.Driver
func (f *Fake) LoadDeviceFunctions(d device.Device, extensions []string) error {
	return f.loader.LoadDevice(uintptr(d), extensions)
}

// EnumerateInstanceLayerProperties implements device.Driver
func (f *Fake) EnumerateInstanceLayerProperties(count *uint32, out []device.LayerProperties) error {
	const name = "vkEnumerateInstanceLayerProperties"
	if err := f.call(name); err != nil {
		return err
	}
	return fill(f, name, count, out, f.Layers)
}

// EnumerateInstanceExtensionProperties implements device.Driver
func (f *Fake) EnumerateInstanceExtensionProperties(count *uint32, out []device.ExtensionProperties) error {
	const name = "vkEnumerateInstanceExtensionProperties"
	if err := f.call(name); err != nil {
		return err
	}
	return fill(f, name, count, out, f.Extensions)
}

// CreateInstance implements device.Driver
func (f *Fake) CreateInstance(info *device.InstanceCreateInfo, instance *device.Instance) error {
	if err := f.call("vkCreateInstance"); err != nil {
		return err
	}
	copied := *info
	f.InstanceInfo = &copied
	f.LiveInstance = device.Instance(f.nextHandle())
	*instance = f.LiveInstance
	return nil
}

// DestroyInstance implements device.Driver
func (f *Fake) DestroyInstance(instance device.Instance) error {
	if err := f.call("vkDestroyInstance"); err != nil {
		return err
	}
	f.LiveInstance = 0
	f.Destroyed = append(f.Destroyed, "instance")
	return nil
}

// CreateDebugReport implements device.Driver
func (f *Fake) CreateDebugReport(instance device.Instance, flags device.DebugReportFlags, fn device.DebugFunc, report *device.DebugReport) error {
	if err := f.call("vkCreateDebugReportCallbackEXT"); err != nil {
		return err
	}
	f.Debug = fn
	*report = device.DebugReport(f.nextHandle())
	return nil
}

// DestroyDebugReport implements device.Driver
func (f *Fake) DestroyDebugReport(instance device.Instance, report device.DebugReport) error {
	if err := f.call("vkDestroyDebugReportCallbackEXT"); err != nil {
		return err
	}
	f.Debug = nil
	f.Destroyed = append(f.Destroyed, "debug report")
	return nil
}

// EnumeratePhysicalDevices implements device.Driver
func (f *Fake) EnumeratePhysicalDevices(instance device.Instance, count *uint32, out []device.PhysicalDevice) error {
	const name = "vkEnumeratePhysicalDevices"
	if err := f.call(name); err != nil {
		return err
	}
	handles := make([]device.PhysicalDevice, len(f.GPUs))
	for i := range f.GPUs {
		handles[i] = Handle(i)
	}
	return fill(f, name, count, out, handles)
}

// EnumerateDeviceExtensionProperties implements device.Driver
func (f *Fake) EnumerateDeviceExtensionProperties(pd device.PhysicalDevice, count *uint32, out []device.ExtensionProperties) error {
	const name = "vkEnumerateDeviceExtensionProperties"
	if err := f.call(name); err != nil {
		return err
	}
	gpu, err := f.gpu(pd)
	if err != nil {
		return err
	}
	return fill(f, name, count, out, gpu.Extensions)
}

// GetPhysicalDeviceFeatures implements device.Driver
func (f *Fake) GetPhysicalDeviceFeatures(pd device.PhysicalDevice) (device.Features, error) {
	if err := f.call("vkGetPhysicalDeviceFeatures"); err != nil {
		return 0, err
	}
	gpu, err := f.gpu(pd)
	if err != nil {
		return 0, err
	}
	return gpu.Features, nil
}

// GetPhysicalDeviceProperties implements device.Driver
func (f *Fake) GetPhysicalDeviceProperties(pd device.PhysicalDevice) (device.PhysicalDeviceProperties, error) {
	if err := f.call("vkGetPhysicalDeviceProperties"); err != nil {
		return device.PhysicalDeviceProperties{}, err
	}
	gpu, err := f.gpu(pd)
	if err != nil {
		return device.PhysicalDeviceProperties{}, err
	}
	return gpu.Properties, nil
}

// GetPhysicalDeviceQueueFamilyProperties implements device.Driver
func (f *Fake) GetPhysicalDeviceQueueFamilyProperties(pd device.PhysicalDevice, count *uint32, out []device.QueueFamilyProperties) error {
	const name = "vkGetPhysicalDeviceQueueFamilyProperties"
	if err := f.call(name); err != nil {
		return err
	}
	gpu, err := f.gpu(pd)
	if err != nil {
		return err
	}
	return fill(f, name, count, out, gpu.QueueFamilies)
}

// GetPhysicalDeviceSurfaceSupport implements device.Driver
func (f *Fake) GetPhysicalDeviceSurfaceSupport(pd device.PhysicalDevice, family uint32, surface device.Surface) (bool, error) {
	if err := f.call("vkGetPhysicalDeviceSurfaceSupportKHR"); err != nil {
		return false, err
	}
	gpu, err := f.gpu(pd)
	if err != nil {
		return false, err
	}
	for _, idx := range gpu.PresentFamilies {
		if idx == family {
			return true, nil
		}
	}
	return false, nil
}

// CreateDevice implements device.Driver
func (f *Fake) CreateDevice(pd device.PhysicalDevice, info *device.DeviceCreateInfo, d *device.Device) error {
	if err := f.call("vkCreateDevice"); err != nil {
		return err
	}
	copied := *info
	f.DeviceInfo = &copied
	f.LiveDevice = device.Device(f.nextHandle())
	*d = f.LiveDevice
	return nil
}

// DestroyDevice implements device.Driver
func (f *Fake) DestroyDevice(d device.Device) error {
	if err := f.call("vkDestroyDevice"); err != nil {
		return err
	}
	f.LiveDevice = 0
	f.loader.UnloadDevice()
	f.Destroyed = append(f.Destroyed, "device")
	return nil
}

// DeviceWaitIdle implements device.Driver
func (f *Fake) DeviceWaitIdle(d device.Device) error {
	return f.call("vkDeviceWaitIdle")
}

// GetDeviceQueue implements device.Driver
func (f *Fake) GetDeviceQueue(d device.Device, family, index uint32) (device.Queue, error) {
	if err := f.call("vkGetDeviceQueue"); err != nil {
		return 0, err
	}
	return device.Queue(uintptr(d)<<8 | uintptr(family)<<4 | uintptr(index)), nil
}

// CreateSurface implements device.Driver
func (f *Fake) CreateSurface(instance device.Instance, display, window unsafe.Pointer, surface *device.Surface) error {
	f.Calls["CreateSurface"]++
	f.Log = append(f.Log, "CreateSurface")
	if res, ok := f.Fail["CreateSurface"]; ok {
		return device.Error(res)
	}
	if window == nil {
		return errors.New("fake: window is nil")
	}
	f.LiveSurface = device.Surface(f.nextHandle())
	*surface = f.LiveSurface
	return nil
}

// DestroySurface implements device.Driver
func (f *Fake) DestroySurface(instance device.Instance, surface device.Surface) error {
	if err := f.call("vkDestroySurfaceKHR"); err != nil {
		return err
	}
	f.LiveSurface = 0
	f.Destroyed = append(f.Destroyed, "surface")
	return nil
}

// GetPhysicalDeviceSurfaceCapabilities implements device.Driver
func (f *Fake) GetPhysicalDeviceSurfaceCapabilities(pd device.PhysicalDevice, surface device.Surface) (device.SurfaceCapabilities, error) {
	if err := f.call("vkGetPhysicalDeviceSurfaceCapabilitiesKHR"); err != nil {
		return device.SurfaceCapabilities{}, err
	}
	return f.SurfaceCapabilities, nil
}

// GetPhysicalDeviceSurfaceFormats implements device.Driver
func (f *Fake) GetPhysicalDeviceSurfaceFormats(pd device.PhysicalDevice, surface device.Surface, count *uint32, out []device.SurfaceFormat) error {
	const name = "vkGetPhysicalDeviceSurfaceFormatsKHR"
	if err := f.call(name); err != nil {
		return err
	}
	return fill(f, name, count, out, f.SurfaceFormats)
}

// GetPhysicalDeviceSurfacePresentModes implements device.Driver
func (f *Fake) GetPhysicalDeviceSurfacePresentModes(pd device.PhysicalDevice, surface device.Surface, count *uint32, out []device.PresentMode) error {
	const name = "vkGetPhysicalDeviceSurfacePresentModesKHR"
	if err := f.call(name); err != nil {
		return err
	}
	return fill(f, name, count, out, f.PresentModes)
}

// CreateSwapchain implements device.Driver
func (f *Fake) CreateSwapchain(d device.Device, info *device.SwapchainCreateInfo, swapchain *device.Swapchain) error {
	if err := f.call("vkCreateSwapchainKHR"); err != nil {
		return err
	}
	copied := *info
	f.SwapchainInfo = &copied
	s := device.Swapchain(f.nextHandle())
	f.LiveSwapchains[s] = true
	*swapchain = s
	return nil
}

// DestroySwapchain implements device.Driver
func (f *Fake) DestroySwapchain(d device.Device, swapchain device.Swapchain) error {
	if err := f.call("vkDestroySwapchainKHR"); err != nil {
		return err
	}
	delete(f.LiveSwapchains, swapchain)
	f.Destroyed = append(f.Destroyed, "swapchain")
	return nil
}

// GetSwapchainImages implements device.Driver
func (f *Fake) GetSwapchainImages(d device.Device, swapchain device.Swapchain, count *uint32, out []device.Image) error {
	const name = "vkGetSwapchainImagesKHR"
	if err := f.call(name); err != nil {
		return err
	}
	n := f.SwapchainImages
	if n == 0 && f.SwapchainInfo != nil {
		n = f.SwapchainInfo.MinImageCount
	}
	images := make([]device.Image, n)
	for i := range images {
		images[i] = device.Image(uintptr(swapchain)<<8 | uintptr(i+1))
	}
	return fill(f, name, count, out, images)
}

// Index returns the position of name in the call log, -1 if it was never called
func (f *Fake) Index(name string) int {
	for i, n := range f.Log {
		if n == name {
			return i
		}
	}
	return -1
}
