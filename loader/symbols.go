// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package loader

// Extension names that gate symbols
const (
	ExtensionSurface        = "VK_KHR_surface"
	ExtensionSwapchain      = "VK_KHR_swapchain"
	ExtensionDebugReport    = "VK_EXT_debug_report"
	ExtensionXlibSurface    = "VK_KHR_xlib_surface"
	ExtensionXcbSurface     = "VK_KHR_xcb_surface"
	ExtensionWaylandSurface = "VK_KHR_wayland_surface"
	ExtensionWin32Surface   = "VK_KHR_win32_surface"
	ExtensionMacOSSurface   = "VK_MVK_macos_surface"
	ExtensionMetalSurface   = "VK_EXT_metal_surface"
)

// GlobalSymbols are resolved with a zero scope right after the runtime is opened
var GlobalSymbols = []Symbol{
	{Name: "vkCreateInstance"},
	{Name: "vkEnumerateInstanceExtensionProperties"},
	{Name: "vkEnumerateInstanceLayerProperties"},
}

// InstanceSymbols are resolved against a created instance
var InstanceSymbols = []Symbol{
	{Name: "vkDestroyInstance"},
	{Name: "vkEnumeratePhysicalDevices"},
	{Name: "vkGetPhysicalDeviceFeatures"},
	{Name: "vkGetPhysicalDeviceProperties"},
	{Name: "vkGetPhysicalDeviceQueueFamilyProperties"},
	{Name: "vkGetPhysicalDeviceMemoryProperties"},
	{Name: "vkEnumerateDeviceExtensionProperties"},
	{Name: "vkEnumerateDeviceLayerProperties"},
	{Name: "vkCreateDevice"},
	// reachable before the device tier exists, to dispose of a device whose
	// functions failed to load
	{Name: "vkDestroyDevice"},
	{Name: "vkGetDeviceProcAddr"},

	{Name: "vkDestroySurfaceKHR", Extension: ExtensionSurface},
	{Name: "vkGetPhysicalDeviceSurfaceSupportKHR", Extension: ExtensionSurface},
	{Name: "vkGetPhysicalDeviceSurfaceCapabilitiesKHR", Extension: ExtensionSurface},
	{Name: "vkGetPhysicalDeviceSurfaceFormatsKHR", Extension: ExtensionSurface},
	{Name: "vkGetPhysicalDeviceSurfacePresentModesKHR", Extension: ExtensionSurface},

	{Name: "vkCreateDebugReportCallbackEXT", Extension: ExtensionDebugReport},
	{Name: "vkDestroyDebugReportCallbackEXT", Extension: ExtensionDebugReport},

	{Name: "vkCreateXlibSurfaceKHR", Extension: ExtensionXlibSurface},
	{Name: "vkCreateXcbSurfaceKHR", Extension: ExtensionXcbSurface},
	{Name: "vkCreateWaylandSurfaceKHR", Extension: ExtensionWaylandSurface},
	{Name: "vkCreateWin32SurfaceKHR", Extension: ExtensionWin32Surface},
	{Name: "vkCreateMacOSSurfaceMVK", Extension: ExtensionMacOSSurface},
	{Name: "vkCreateMetalSurfaceEXT", Extension: ExtensionMetalSurface},
}

// DeviceSymbols are resolved against a created logical device
var DeviceSymbols = []Symbol{
	{Name: "vkDestroyDevice"},
	{Name: "vkDeviceWaitIdle"},
	{Name: "vkGetDeviceQueue"},

	{Name: "vkCreateSwapchainKHR", Extension: ExtensionSwapchain},
	{Name: "vkDestroySwapchainKHR", Extension: ExtensionSwapchain},
	{Name: "vkGetSwapchainImagesKHR", Extension: ExtensionSwapchain},
	{Name: "vkAcquireNextImageKHR", Extension: ExtensionSwapchain},
	{Name: "vkQueuePresentKHR", Extension: ExtensionSwapchain},
}
