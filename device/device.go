// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package device describes the driver capability set the bootstrap code runs
// against, and implements it over the Vulkan runtime.
package device

import (
	"unsafe"

	"github.com/devblok/vkboot/loader"
)

// Handles of driver objects. A zero value is the null handle.
type (
	Instance       uintptr
	PhysicalDevice uintptr
	Device         uintptr
	Queue          uintptr
	Surface        uintptr
	Swapchain      uintptr
	Image          uintptr
	DebugReport    uintptr
)

// QueueFlags describe the capabilities of a queue family
type QueueFlags uint32

// Queue capability bits
const (
	QueueGraphics      QueueFlags = 0x1
	QueueCompute       QueueFlags = 0x2
	QueueTransfer      QueueFlags = 0x4
	QueueSparseBinding QueueFlags = 0x8
	QueueProtected     QueueFlags = 0x10
)

// PresentMode is a swapchain presentation mode
type PresentMode int32

// Presentation modes
const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

// ImageUsageFlags describe how swapchain images may be used
type ImageUsageFlags uint32

// Image usage bits
const (
	ImageUsageTransferSrc            ImageUsageFlags = 0x1
	ImageUsageTransferDst            ImageUsageFlags = 0x2
	ImageUsageSampled                ImageUsageFlags = 0x4
	ImageUsageStorage                ImageUsageFlags = 0x8
	ImageUsageColorAttachment        ImageUsageFlags = 0x10
	ImageUsageDepthStencilAttachment ImageUsageFlags = 0x20
	ImageUsageTransientAttachment    ImageUsageFlags = 0x40
	ImageUsageInputAttachment        ImageUsageFlags = 0x80
)

// SurfaceTransformFlags describe presentation transforms
type SurfaceTransformFlags uint32

// Surface transform bits
const (
	SurfaceTransformIdentity                  SurfaceTransformFlags = 0x1
	SurfaceTransformRotate90                  SurfaceTransformFlags = 0x2
	SurfaceTransformRotate180                 SurfaceTransformFlags = 0x4
	SurfaceTransformRotate270                 SurfaceTransformFlags = 0x8
	SurfaceTransformHorizontalMirror          SurfaceTransformFlags = 0x10
	SurfaceTransformHorizontalMirrorRotate90  SurfaceTransformFlags = 0x20
	SurfaceTransformHorizontalMirrorRotate180 SurfaceTransformFlags = 0x40
	SurfaceTransformHorizontalMirrorRotate270 SurfaceTransformFlags = 0x80
	SurfaceTransformInherit                   SurfaceTransformFlags = 0x100
)

// CompositeAlphaFlags describe how presented images are composited
type CompositeAlphaFlags uint32

// Composite alpha bits
const (
	CompositeAlphaOpaque         CompositeAlphaFlags = 0x1
	CompositeAlphaPreMultiplied  CompositeAlphaFlags = 0x2
	CompositeAlphaPostMultiplied CompositeAlphaFlags = 0x4
	CompositeAlphaInherit        CompositeAlphaFlags = 0x8
)

// Format is an image format
type Format int32

// Image formats the swapchain negotiation knows of
const (
	FormatUndefined     Format = 0
	FormatB8G8R8A8Unorm Format = 44
	FormatB8G8R8A8Srgb  Format = 50
)

// ColorSpace is a presentation color space
type ColorSpace int32

// ColorSpaceSrgbNonlinear is the only color space every surface must support
const ColorSpaceSrgbNonlinear ColorSpace = 0

// SharingMode tells whether images are shared between queue families
type SharingMode int32

// Sharing modes
const (
	SharingModeExclusive  SharingMode = 0
	SharingModeConcurrent SharingMode = 1
)

// PhysicalDeviceType classifies a physical device
type PhysicalDeviceType int32

// Physical device types
const (
	PhysicalDeviceTypeOther         PhysicalDeviceType = 0
	PhysicalDeviceTypeIntegratedGPU PhysicalDeviceType = 1
	PhysicalDeviceTypeDiscreteGPU   PhysicalDeviceType = 2
	PhysicalDeviceTypeVirtualGPU    PhysicalDeviceType = 3
	PhysicalDeviceTypeCPU           PhysicalDeviceType = 4
)

func (t PhysicalDeviceType) String() string {
	switch t {
	case PhysicalDeviceTypeIntegratedGPU:
		return "integrated"
	case PhysicalDeviceTypeDiscreteGPU:
		return "discrete"
	case PhysicalDeviceTypeVirtualGPU:
		return "virtual"
	case PhysicalDeviceTypeCPU:
		return "cpu"
	default:
		return "other"
	}
}

// DebugReportFlags select which debug messages are reported
type DebugReportFlags uint32

// Debug report bits
const (
	DebugReportInformation        DebugReportFlags = 0x1
	DebugReportWarning            DebugReportFlags = 0x2
	DebugReportPerformanceWarning DebugReportFlags = 0x4
	DebugReportError              DebugReportFlags = 0x8
	DebugReportDebug              DebugReportFlags = 0x10
)

// DebugFunc receives validation messages
type DebugFunc func(flags DebugReportFlags, layerPrefix, message string)

// MakeVersion packs a version the way the driver expects it
func MakeVersion(major, minor, patch uint32) uint32 {
	return major<<22 | minor<<12 | patch
}

// Version unpacks a packed version
func Version(v uint32) (major, minor, patch uint32) {
	return v >> 22, (v >> 12) & 0x3ff, v & 0xfff
}

// Extent2D is a two dimensional size
type Extent2D struct {
	Width  uint32
	Height uint32
}

// Extent3D is a three dimensional size
type Extent3D struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

// ExtensionProperties describes an extension
type ExtensionProperties struct {
	Name        string
	SpecVersion uint32
}

// LayerProperties describes a layer
type LayerProperties struct {
	Name                  string
	SpecVersion           uint32
	ImplementationVersion uint32
	Description           string
}

// QueueFamilyProperties describes one queue family, its index is the position
// in the enumerated slice
type QueueFamilyProperties struct {
	Flags                       QueueFlags
	Count                       uint32
	TimestampValidBits          uint32
	MinImageTransferGranularity Extent3D
}

// PhysicalDeviceProperties describes a physical device
type PhysicalDeviceProperties struct {
	APIVersion    uint32
	DriverVersion uint32
	VendorID      uint32
	DeviceID      uint32
	Type          PhysicalDeviceType
	Name          string
}

// SurfaceCapabilities is a snapshot of what a surface supports
type SurfaceCapabilities struct {
	MinImageCount           uint32
	MaxImageCount           uint32
	CurrentExtent           Extent2D
	MinImageExtent          Extent2D
	MaxImageExtent          Extent2D
	MaxImageArrayLayers     uint32
	SupportedTransforms     SurfaceTransformFlags
	CurrentTransform        SurfaceTransformFlags
	SupportedCompositeAlpha CompositeAlphaFlags
	SupportedUsageFlags     ImageUsageFlags
}

// SurfaceFormat pairs a format with a color space
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// ApplicationInfo identifies the application to the driver
type ApplicationInfo struct {
	ApplicationName    string
	ApplicationVersion uint32
	EngineName         string
	EngineVersion      uint32
	APIVersion         uint32
}

// InstanceCreateInfo holds the parameters of instance creation
type InstanceCreateInfo struct {
	Application ApplicationInfo
	Layers      []string
	Extensions  []string
}

// DeviceQueueCreateInfo requests Count queues from a family. Priorities may be
// longer than Count, only the first Count entries are used.
type DeviceQueueCreateInfo struct {
	FamilyIndex uint32
	Count       uint32
	Priorities  []float32
}

// DeviceCreateInfo holds the parameters of logical device creation
type DeviceCreateInfo struct {
	Queues     []DeviceQueueCreateInfo
	Extensions []string
	Features   Features
}

// SwapchainCreateInfo holds the parameters of swapchain creation
type SwapchainCreateInfo struct {
	Surface        Surface
	MinImageCount  uint32
	Format         Format
	ColorSpace     ColorSpace
	Extent         Extent2D
	ArrayLayers    uint32
	Usage          ImageUsageFlags
	SharingMode    SharingMode
	PreTransform   SurfaceTransformFlags
	CompositeAlpha CompositeAlphaFlags
	PresentMode    PresentMode
	Clipped        bool
	OldSwapchain   Swapchain
}

// SurfaceFactory creates presentation surfaces for one windowing platform.
// Display and window are opaque platform handles.
type SurfaceFactory interface {
	CreateSurface(instance Instance, display, window unsafe.Pointer) (Surface, error)
}

// Driver is the set of driver calls the bootstrap uses. Enumerations follow
// the count then fill convention: a nil out slice queries the count.
type Driver interface {
	// Tables returns the resolved capability tables
	Tables() *loader.Tables
	// LoadInstanceFunctions resolves the instance tier for the enabled extensions
	LoadInstanceFunctions(instance Instance, extensions []string) error
	// LoadDeviceFunctions resolves the device tier for the enabled extensions
	LoadDeviceFunctions(device Device, extensions []string) error

	EnumerateInstanceLayerProperties(count *uint32, out []LayerProperties) error
	EnumerateInstanceExtensionProperties(count *uint32, out []ExtensionProperties) error
	CreateInstance(info *InstanceCreateInfo, instance *Instance) error
	DestroyInstance(instance Instance) error
	CreateDebugReport(instance Instance, flags DebugReportFlags, fn DebugFunc, report *DebugReport) error
	DestroyDebugReport(instance Instance, report DebugReport) error

	EnumeratePhysicalDevices(instance Instance, count *uint32, out []PhysicalDevice) error
	EnumerateDeviceExtensionProperties(pd PhysicalDevice, count *uint32, out []ExtensionProperties) error
	GetPhysicalDeviceFeatures(pd PhysicalDevice) (Features, error)
	GetPhysicalDeviceProperties(pd PhysicalDevice) (PhysicalDeviceProperties, error)
	GetPhysicalDeviceQueueFamilyProperties(pd PhysicalDevice, count *uint32, out []QueueFamilyProperties) error
	GetPhysicalDeviceSurfaceSupport(pd PhysicalDevice, family uint32, surface Surface) (bool, error)

	CreateDevice(pd PhysicalDevice, info *DeviceCreateInfo, device *Device) error
	DestroyDevice(device Device) error
	DeviceWaitIdle(device Device) error
	GetDeviceQueue(device Device, family, index uint32) (Queue, error)

	CreateSurface(instance Instance, display, window unsafe.Pointer, surface *Surface) error
	DestroySurface(instance Instance, surface Surface) error
	GetPhysicalDeviceSurfaceCapabilities(pd PhysicalDevice, surface Surface) (SurfaceCapabilities, error)
	GetPhysicalDeviceSurfaceFormats(pd PhysicalDevice, surface Surface, count *uint32, out []SurfaceFormat) error
	GetPhysicalDeviceSurfacePresentModes(pd PhysicalDevice, surface Surface, count *uint32, out []PresentMode) error

	CreateSwapchain(device Device, info *SwapchainCreateInfo, swapchain *Swapchain) error
	DestroySwapchain(device Device, swapchain Swapchain) error
	GetSwapchainImages(device Device, swapchain Swapchain, count *uint32, out []Image) error
}
