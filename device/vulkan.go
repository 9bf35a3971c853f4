// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/devblok/vulkan"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkboot/loader"
)

// Vulkan implements Driver over the Vulkan runtime. Each call checks the
// capability tables first and fails with loader.ErrSymbolNotLoaded rather than
// calling an entry point that was never resolved.
type Vulkan struct {
	loader   *loader.Loader
	surfaces SurfaceFactory
}

// NewVulkan binds the runtime behind the loader. The global tier is resolved
// if the loader has not done so already.
func NewVulkan(l *loader.Loader, surfaces SurfaceFactory) (*Vulkan, error) {
	if l.Root() == 0 {
		return nil, errors.Wrap(loader.ErrSymbolNotFound, loader.RootSymbol)
	}
	if l.Tables().Global == nil {
		if err := l.LoadGlobal(); err != nil {
			return nil, err
		}
	}

	vk.SetGetInstanceProcAddr(unsafe.Pointer(l.Root()))
	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "vk.Init()")
	}

	return &Vulkan{
		loader:   l,
		surfaces: surfaces,
	}, nil
}

func (v *Vulkan) require(names ...string) error {
	for _, name := range names {
		if _, err := v.loader.Tables().Require(name); err != nil {
			log.WithFields(log.Fields{
				"func":   "device.Vulkan",
				"symbol": name,
			}).Error("call to an entry point that is not loaded")
			return err
		}
	}
	return nil
}

func status(r vk.Result) error {
	return Error(Result(r))
}

// Tables implements Driver
func (v *Vulkan) Tables() *loader.Tables {
	return v.loader.Tables()
}

// LoadInstanceFunctions implements Driver
func (v *Vulkan) LoadInstanceFunctions(instance Instance, extensions []string) error {
	err := v.loader.LoadInstance(uintptr(instance), extensions)
	if err != nil && !v.loader.Tables().Instance.Has("vkDestroyInstance") {
		return err
	}
	// also after a failed tier, so the instance can still be destroyed
	vk.InitInstance(instanceToVk(instance))
	return err
}

// LoadDeviceFunctions implements Driver
func (v *Vulkan) LoadDeviceFunctions(device Device, extensions []string) error {
	return v.loader.LoadDevice(uintptr(device), extensions)
}

// EnumerateInstanceLayerProperties implements Driver
func (v *Vulkan) EnumerateInstanceLayerProperties(count *uint32, out []LayerProperties) error {
	if err := v.require("vkEnumerateInstanceLayerProperties"); err != nil {
		return err
	}
	if out == nil {
		return status(vk.EnumerateInstanceLayerProperties(count, nil))
	}

	layers := make([]vk.LayerProperties, len(out))
	res := vk.EnumerateInstanceLayerProperties(count, layers)
	for i := 0; i < int(*count) && i < len(out); i++ {
		layers[i].Deref()
		out[i] = LayerProperties{
			Name:                  vk.ToString(layers[i].LayerName[:]),
			SpecVersion:           layers[i].SpecVersion,
			ImplementationVersion: layers[i].ImplementationVersion,
			Description:           vk.ToString(layers[i].Description[:]),
		}
	}
	return status(res)
}

// EnumerateInstanceExtensionProperties implements Driver
func (v *Vulkan) EnumerateInstanceExtensionProperties(count *uint32, out []ExtensionProperties) error {
	if err := v.require("vkEnumerateInstanceExtensionProperties"); err != nil {
		return err
	}
	if out == nil {
		return status(vk.EnumerateInstanceExtensionProperties("", count, nil))
	}

	exts := make([]vk.ExtensionProperties, len(out))
	res := vk.EnumerateInstanceExtensionProperties("", count, exts)
	copyExtensions(out, exts, *count)
	return status(res)
}

func copyExtensions(out []ExtensionProperties, exts []vk.ExtensionProperties, count uint32) {
	for i := 0; i < int(count) && i < len(out); i++ {
		exts[i].Deref()
		out[i] = ExtensionProperties{
			Name:        vk.ToString(exts[i].ExtensionName[:]),
			SpecVersion: exts[i].SpecVersion,
		}
	}
}

// CreateInstance implements Driver
func (v *Vulkan) CreateInstance(info *InstanceCreateInfo, instance *Instance) error {
	if err := v.require("vkCreateInstance"); err != nil {
		return err
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeString(info.Application.ApplicationName),
		ApplicationVersion: info.Application.ApplicationVersion,
		PEngineName:        safeString(info.Application.EngineName),
		EngineVersion:      info.Application.EngineVersion,
		ApiVersion:         info.Application.APIVersion,
	}

	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(info.Extensions)),
		PpEnabledExtensionNames: safeStrings(info.Extensions),
		EnabledLayerCount:       uint32(len(info.Layers)),
		PpEnabledLayerNames:     safeStrings(info.Layers),
	}

	var vkInstance vk.Instance
	if err := status(vk.CreateInstance(&instanceInfo, nil, &vkInstance)); err != nil {
		return err
	}
	*instance = Instance(unsafe.Pointer(vkInstance))
	return nil
}

// DestroyInstance implements Driver
func (v *Vulkan) DestroyInstance(instance Instance) error {
	if err := v.require("vkDestroyInstance"); err != nil {
		return err
	}
	vk.DestroyInstance(instanceToVk(instance), nil)
	return nil
}

// CreateDebugReport implements Driver
func (v *Vulkan) CreateDebugReport(instance Instance, flags DebugReportFlags, fn DebugFunc, report *DebugReport) error {
	if err := v.require("vkCreateDebugReportCallbackEXT"); err != nil {
		return err
	}

	createInfo := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(flags),
		PfnCallback: func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint, location uint, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
			fn(DebugReportFlags(flags), pLayerPrefix, pMessage)
			return vk.False
		},
	}

	var callback vk.DebugReportCallback
	if err := status(vk.CreateDebugReportCallback(instanceToVk(instance), &createInfo, nil, &callback)); err != nil {
		return err
	}
	*report = DebugReport(unsafe.Pointer(callback))
	return nil
}

// DestroyDebugReport implements Driver
func (v *Vulkan) DestroyDebugReport(instance Instance, report DebugReport) error {
	if err := v.require("vkDestroyDebugReportCallbackEXT"); err != nil {
		return err
	}
	vk.DestroyDebugReportCallback(instanceToVk(instance), debugReportToVk(report), nil)
	return nil
}

// EnumeratePhysicalDevices implements Driver
func (v *Vulkan) EnumeratePhysicalDevices(instance Instance, count *uint32, out []PhysicalDevice) error {
	if err := v.require("vkEnumeratePhysicalDevices"); err != nil {
		return err
	}
	if out == nil {
		return status(vk.EnumeratePhysicalDevices(instanceToVk(instance), count, nil))
	}

	devices := make([]vk.PhysicalDevice, len(out))
	res := vk.EnumeratePhysicalDevices(instanceToVk(instance), count, devices)
	for i := 0; i < int(*count) && i < len(out); i++ {
		out[i] = PhysicalDevice(unsafe.Pointer(devices[i]))
	}
	return status(res)
}

// EnumerateDeviceExtensionProperties implements Driver
func (v *Vulkan) EnumerateDeviceExtensionProperties(pd PhysicalDevice, count *uint32, out []ExtensionProperties) error {
	if err := v.require("vkEnumerateDeviceExtensionProperties"); err != nil {
		return err
	}
	if out == nil {
		return status(vk.EnumerateDeviceExtensionProperties(physicalDeviceToVk(pd), "", count, nil))
	}

	exts := make([]vk.ExtensionProperties, len(out))
	res := vk.EnumerateDeviceExtensionProperties(physicalDeviceToVk(pd), "", count, exts)
	copyExtensions(out, exts, *count)
	return status(res)
}

// GetPhysicalDeviceFeatures implements Driver
func (v *Vulkan) GetPhysicalDeviceFeatures(pd PhysicalDevice) (Features, error) {
	if err := v.require("vkGetPhysicalDeviceFeatures"); err != nil {
		return 0, err
	}
	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(physicalDeviceToVk(pd), &features)
	features.Deref()
	return featuresFromVk(features), nil
}

// GetPhysicalDeviceProperties implements Driver
func (v *Vulkan) GetPhysicalDeviceProperties(pd PhysicalDevice) (PhysicalDeviceProperties, error) {
	if err := v.require("vkGetPhysicalDeviceProperties"); err != nil {
		return PhysicalDeviceProperties{}, err
	}
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(physicalDeviceToVk(pd), &props)
	props.Deref()
	return PhysicalDeviceProperties{
		APIVersion:    props.ApiVersion,
		DriverVersion: props.DriverVersion,
		VendorID:      props.VendorID,
		DeviceID:      props.DeviceID,
		Type:          PhysicalDeviceType(props.DeviceType),
		Name:          vk.ToString(props.DeviceName[:]),
	}, nil
}

// GetPhysicalDeviceQueueFamilyProperties implements Driver
func (v *Vulkan) GetPhysicalDeviceQueueFamilyProperties(pd PhysicalDevice, count *uint32, out []QueueFamilyProperties) error {
	if err := v.require("vkGetPhysicalDeviceQueueFamilyProperties"); err != nil {
		return err
	}
	if out == nil {
		vk.GetPhysicalDeviceQueueFamilyProperties(physicalDeviceToVk(pd), count, nil)
		return nil
	}

	families := make([]vk.QueueFamilyProperties, len(out))
	vk.GetPhysicalDeviceQueueFamilyProperties(physicalDeviceToVk(pd), count, families)
	for i := 0; i < int(*count) && i < len(out); i++ {
		families[i].Deref()
		families[i].MinImageTransferGranularity.Deref()
		out[i] = QueueFamilyProperties{
			Flags:              QueueFlags(families[i].QueueFlags),
			Count:              families[i].QueueCount,
			TimestampValidBits: families[i].TimestampValidBits,
			MinImageTransferGranularity: Extent3D{
				Width:  families[i].MinImageTransferGranularity.Width,
				Height: families[i].MinImageTransferGranularity.Height,
				Depth:  families[i].MinImageTransferGranularity.Depth,
			},
		}
	}
	return nil
}

// GetPhysicalDeviceSurfaceSupport implements Driver
func (v *Vulkan) GetPhysicalDeviceSurfaceSupport(pd PhysicalDevice, family uint32, surface Surface) (bool, error) {
	if err := v.require("vkGetPhysicalDeviceSurfaceSupportKHR"); err != nil {
		return false, err
	}
	var supported vk.Bool32
	if err := status(vk.GetPhysicalDeviceSurfaceSupport(physicalDeviceToVk(pd), family, surfaceToVk(surface), &supported)); err != nil {
		return false, err
	}
	return supported == vk.True, nil
}

// CreateDevice implements Driver
func (v *Vulkan) CreateDevice(pd PhysicalDevice, info *DeviceCreateInfo, device *Device) error {
	if err := v.require("vkCreateDevice"); err != nil {
		return err
	}

	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(info.Queues))
	for _, q := range info.Queues {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: q.FamilyIndex,
			QueueCount:       q.Count,
			PQueuePriorities: q.Priorities,
		})
	}

	deviceInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(info.Extensions)),
		PpEnabledExtensionNames: safeStrings(info.Extensions),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{featuresToVk(info.Features)},
	}

	var vkDevice vk.Device
	if err := status(vk.CreateDevice(physicalDeviceToVk(pd), &deviceInfo, nil, &vkDevice)); err != nil {
		return err
	}
	*device = Device(unsafe.Pointer(vkDevice))
	return nil
}

// DestroyDevice implements Driver
func (v *Vulkan) DestroyDevice(device Device) error {
	if err := v.require("vkDestroyDevice"); err != nil {
		return err
	}
	vk.DestroyDevice(deviceToVk(device), nil)
	v.loader.UnloadDevice()
	return nil
}

// DeviceWaitIdle implements Driver
func (v *Vulkan) DeviceWaitIdle(device Device) error {
	if err := v.require("vkDeviceWaitIdle"); err != nil {
		return err
	}
	return status(vk.DeviceWaitIdle(deviceToVk(device)))
}

// GetDeviceQueue implements Driver
func (v *Vulkan) GetDeviceQueue(device Device, family, index uint32) (Queue, error) {
	if err := v.require("vkGetDeviceQueue"); err != nil {
		return 0, err
	}
	var queue vk.Queue
	vk.GetDeviceQueue(deviceToVk(device), family, index, &queue)
	return Queue(unsafe.Pointer(queue)), nil
}

// CreateSurface implements Driver
func (v *Vulkan) CreateSurface(instance Instance, display, window unsafe.Pointer, surface *Surface) error {
	if v.surfaces == nil {
		return errors.New("no surface factory for this platform")
	}
	s, err := v.surfaces.CreateSurface(instance, display, window)
	if err != nil {
		return err
	}
	*surface = s
	return nil
}

// DestroySurface implements Driver
func (v *Vulkan) DestroySurface(instance Instance, surface Surface) error {
	if err := v.require("vkDestroySurfaceKHR"); err != nil {
		return err
	}
	vk.DestroySurface(instanceToVk(instance), surfaceToVk(surface), nil)
	return nil
}

// GetPhysicalDeviceSurfaceCapabilities implements Driver
func (v *Vulkan) GetPhysicalDeviceSurfaceCapabilities(pd PhysicalDevice, surface Surface) (SurfaceCapabilities, error) {
	if err := v.require("vkGetPhysicalDeviceSurfaceCapabilitiesKHR"); err != nil {
		return SurfaceCapabilities{}, err
	}
	var caps vk.SurfaceCapabilities
	if err := status(vk.GetPhysicalDeviceSurfaceCapabilities(physicalDeviceToVk(pd), surfaceToVk(surface), &caps)); err != nil {
		return SurfaceCapabilities{}, err
	}
	caps.Deref()
	return SurfaceCapabilities{
		MinImageCount:           caps.MinImageCount,
		MaxImageCount:           caps.MaxImageCount,
		CurrentExtent:           extent2DFromVk(caps.CurrentExtent),
		MinImageExtent:          extent2DFromVk(caps.MinImageExtent),
		MaxImageExtent:          extent2DFromVk(caps.MaxImageExtent),
		MaxImageArrayLayers:     caps.MaxImageArrayLayers,
		SupportedTransforms:     SurfaceTransformFlags(caps.SupportedTransforms),
		CurrentTransform:        SurfaceTransformFlags(caps.CurrentTransform),
		SupportedCompositeAlpha: CompositeAlphaFlags(caps.SupportedCompositeAlpha),
		SupportedUsageFlags:     ImageUsageFlags(caps.SupportedUsageFlags),
	}, nil
}

// GetPhysicalDeviceSurfaceFormats implements Driver
func (v *Vulkan) GetPhysicalDeviceSurfaceFormats(pd PhysicalDevice, surface Surface, count *uint32, out []SurfaceFormat) error {
	if err := v.require("vkGetPhysicalDeviceSurfaceFormatsKHR"); err != nil {
		return err
	}
	if out == nil {
		return status(vk.GetPhysicalDeviceSurfaceFormats(physicalDeviceToVk(pd), surfaceToVk(surface), count, nil))
	}

	formats := make([]vk.SurfaceFormat, len(out))
	res := vk.GetPhysicalDeviceSurfaceFormats(physicalDeviceToVk(pd), surfaceToVk(surface), count, formats)
	for i := 0; i < int(*count) && i < len(out); i++ {
		formats[i].Deref()
		out[i] = SurfaceFormat{
			Format:     Format(formats[i].Format),
			ColorSpace: ColorSpace(formats[i].ColorSpace),
		}
	}
	return status(res)
}

// GetPhysicalDeviceSurfacePresentModes implements Driver
func (v *Vulkan) GetPhysicalDeviceSurfacePresentModes(pd PhysicalDevice, surface Surface, count *uint32, out []PresentMode) error {
	if err := v.require("vkGetPhysicalDeviceSurfacePresentModesKHR"); err != nil {
		return err
	}
	if out == nil {
		return status(vk.GetPhysicalDeviceSurfacePresentModes(physicalDeviceToVk(pd), surfaceToVk(surface), count, nil))
	}

	modes := make([]vk.PresentMode, len(out))
	res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDeviceToVk(pd), surfaceToVk(surface), count, modes)
	for i := 0; i < int(*count) && i < len(out); i++ {
		out[i] = PresentMode(modes[i])
	}
	return status(res)
}

// CreateSwapchain implements Driver
func (v *Vulkan) CreateSwapchain(device Device, info *SwapchainCreateInfo, swapchain *Swapchain) error {
	if err := v.require("vkCreateSwapchainKHR"); err != nil {
		return err
	}

	var clipped vk.Bool32 = vk.False
	if info.Clipped {
		clipped = vk.True
	}

	scci := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         surfaceToVk(info.Surface),
		MinImageCount:   info.MinImageCount,
		ImageFormat:     vk.Format(info.Format),
		ImageColorSpace: vk.ColorSpace(info.ColorSpace),
		ImageExtent: vk.Extent2D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
		},
		ImageArrayLayers: info.ArrayLayers,
		ImageUsage:       vk.ImageUsageFlags(info.Usage),
		ImageSharingMode: vk.SharingMode(info.SharingMode),
		PreTransform:     vk.SurfaceTransformFlagBits(info.PreTransform),
		CompositeAlpha:   vk.CompositeAlphaFlagBits(info.CompositeAlpha),
		PresentMode:      vk.PresentMode(info.PresentMode),
		Clipped:          clipped,
		OldSwapchain:     swapchainToVk(info.OldSwapchain),
	}

	var vkSwapchain vk.Swapchain
	if err := status(vk.CreateSwapchain(deviceToVk(device), &scci, nil, &vkSwapchain)); err != nil {
		return err
	}
	*swapchain = Swapchain(unsafe.Pointer(vkSwapchain))
	return nil
}

// DestroySwapchain implements Driver
func (v *Vulkan) DestroySwapchain(device Device, swapchain Swapchain) error {
	if err := v.require("vkDestroySwapchainKHR"); err != nil {
		return err
	}
	vk.DestroySwapchain(deviceToVk(device), swapchainToVk(swapchain), nil)
	return nil
}

// GetSwapchainImages implements Driver
func (v *Vulkan) GetSwapchainImages(device Device, swapchain Swapchain, count *uint32, out []Image) error {
	if err := v.require("vkGetSwapchainImagesKHR"); err != nil {
		return err
	}
	if out == nil {
		return status(vk.GetSwapchainImages(deviceToVk(device), swapchainToVk(swapchain), count, nil))
	}

	images := make([]vk.Image, len(out))
	res := vk.GetSwapchainImages(deviceToVk(device), swapchainToVk(swapchain), count, images)
	for i := 0; i < int(*count) && i < len(out); i++ {
		out[i] = Image(unsafe.Pointer(images[i]))
	}
	return status(res)
}
