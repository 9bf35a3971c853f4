// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkboot/device"
)

// UndefinedExtent is the width a surface reports when the swapchain decides its size
const UndefinedExtent = 0xFFFFFFFF

// Extent used when the surface lets the swapchain decide and no hint is given
const (
	DefaultWidth  = 1024
	DefaultHeight = 768
)

// PreferredSurfaceFormat is the only format swapchains are created with
var PreferredSurfaceFormat = device.SurfaceFormat{
	Format:     device.FormatB8G8R8A8Unorm,
	ColorSpace: device.ColorSpaceSrgbNonlinear,
}

var compositeAlphaOrder = []device.CompositeAlphaFlags{
	device.CompositeAlphaOpaque,
	device.CompositeAlphaPreMultiplied,
	device.CompositeAlphaPostMultiplied,
	device.CompositeAlphaInherit,
}

// SwapchainOptions are the inputs of swapchain negotiation
type SwapchainOptions struct {
	PhysicalDevice device.PhysicalDevice
	Device         device.Device
	Surface        device.Surface

	// PresentModes are the modes the surface offers
	PresentModes []device.PresentMode
	PresentMode  device.PresentMode
	Usage        device.ImageUsageFlags
	Transform    device.SurfaceTransformFlags

	// Width and Height are optional size hints. When the surface dictates its
	// size it is written back through them.
	Width  *uint32
	Height *uint32
}

// Swapchain is a created swapchain and its images. The images belong to the
// swapchain and are never destroyed on their own.
type Swapchain struct {
	Handle      device.Swapchain
	Images      []device.Image
	Extent      device.Extent2D
	Format      device.SurfaceFormat
	PresentMode device.PresentMode
}

// CreateSurface creates a presentation surface for a platform window
func CreateSurface(drv device.Driver, instance device.Instance, display, window unsafe.Pointer) (device.Surface, error) {
	var surface device.Surface
	if err := drv.CreateSurface(instance, display, window, &surface); err != nil {
		log.WithField("func", "core.CreateSurface").Error(err)
		return 0, errors.Wrap(err, "create surface")
	}
	if surface == 0 {
		log.WithField("func", "core.CreateSurface").Error("null surface handle")
		return 0, errors.Wrap(ErrNullHandle, "create surface")
	}
	return surface, nil
}

// DestroySurface destroys the surface and clears the handle. A null surface is
// only reported.
func DestroySurface(drv device.Driver, instance device.Instance, surface *device.Surface) {
	if surface == nil || *surface == 0 {
		log.WithField("func", "core.DestroySurface").Warn("surface is null")
		return
	}
	if err := drv.DestroySurface(instance, *surface); err != nil {
		log.WithField("func", "core.DestroySurface").Error(err)
	}
	*surface = 0
}

// EnumeratePresentModes lists the present modes of a surface. A surface with
// no present modes is an error.
func EnumeratePresentModes(drv device.Driver, pd device.PhysicalDevice, surface device.Surface) ([]device.PresentMode, error) {
	modes, err := enumerate("vkGetPhysicalDeviceSurfacePresentModesKHR", func(count *uint32, out []device.PresentMode) error {
		return drv.GetPhysicalDeviceSurfacePresentModes(pd, surface, count, out)
	})
	if err != nil {
		return nil, err
	}
	if len(modes) == 0 {
		log.WithField("func", "core.EnumeratePresentModes").Error("surface has no present modes")
		return nil, errors.Wrap(ErrNotAvailable, "present modes")
	}
	return modes, nil
}

// EnumerateSurfaceFormats lists the formats a surface can present
func EnumerateSurfaceFormats(drv device.Driver, pd device.PhysicalDevice, surface device.Surface) ([]device.SurfaceFormat, error) {
	return enumerate("vkGetPhysicalDeviceSurfaceFormatsKHR", func(count *uint32, out []device.SurfaceFormat) error {
		return drv.GetPhysicalDeviceSurfaceFormats(pd, surface, count, out)
	})
}

// SwapchainImageCount is one more than the minimum, capped by the maximum
// unless the maximum is zero
func SwapchainImageCount(caps device.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount != 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// SwapchainExtent picks the image size. A surface with a defined size is used
// as is, otherwise the hints are clamped into the supported range.
func SwapchainExtent(caps device.SurfaceCapabilities, width, height uint32) device.Extent2D {
	if caps.CurrentExtent.Width != UndefinedExtent {
		return caps.CurrentExtent
	}
	if width == 0 {
		width = DefaultWidth
	}
	if height == 0 {
		height = DefaultHeight
	}
	return device.Extent2D{
		Width:  clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clamp(v, min, max uint32) uint32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// CompositeAlpha picks the first supported mode, preferring opaque
func CompositeAlpha(supported device.CompositeAlphaFlags) device.CompositeAlphaFlags {
	for _, mode := range compositeAlphaOrder {
		if supported&mode != 0 {
			return mode
		}
	}
	return device.CompositeAlphaOpaque
}

func hasPresentMode(modes []device.PresentMode, mode device.PresentMode) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}

func hasSurfaceFormat(formats []device.SurfaceFormat, format device.SurfaceFormat) bool {
	for _, f := range formats {
		if f == format {
			return true
		}
	}
	return false
}

// CreateSwapchain negotiates and creates a swapchain. When previous holds a
// swapchain the new one replaces it, and the previous one is destroyed and
// cleared once the new one exists.
func CreateSwapchain(drv device.Driver, opts SwapchainOptions, previous *device.Swapchain) (Swapchain, error) {
	logger := log.WithField("func", "core.CreateSwapchain")

	if !hasPresentMode(opts.PresentModes, opts.PresentMode) {
		logger.WithFields(log.Fields{
			"desired":   PresentModeName(opts.PresentMode),
			"available": opts.PresentModes,
		}).Error("present mode not available")
		return Swapchain{}, errors.Wrapf(ErrNotAvailable, "present mode %s", PresentModeName(opts.PresentMode))
	}

	caps, err := drv.GetPhysicalDeviceSurfaceCapabilities(opts.PhysicalDevice, opts.Surface)
	if err != nil {
		logger.Error(err)
		return Swapchain{}, errors.Wrap(err, "vkGetPhysicalDeviceSurfaceCapabilitiesKHR")
	}
	if caps.SupportedUsageFlags&opts.Usage != opts.Usage {
		logger.WithFields(log.Fields{
			"desired":   opts.Usage,
			"supported": caps.SupportedUsageFlags,
		}).Error("image usage not supported")
		return Swapchain{}, errors.Wrapf(ErrNotAvailable, "image usage %#x", uint32(opts.Usage))
	}
	if caps.SupportedTransforms&opts.Transform != opts.Transform {
		logger.WithFields(log.Fields{
			"desired":   opts.Transform,
			"supported": caps.SupportedTransforms,
		}).Error("surface transform not supported")
		return Swapchain{}, errors.Wrapf(ErrNotAvailable, "surface transform %#x", uint32(opts.Transform))
	}

	imageCount := SwapchainImageCount(caps)

	var width, height uint32
	if opts.Width != nil {
		width = *opts.Width
	}
	if opts.Height != nil {
		height = *opts.Height
	}
	extent := SwapchainExtent(caps, width, height)
	if caps.CurrentExtent.Width != UndefinedExtent {
		if opts.Width != nil {
			*opts.Width = extent.Width
		}
		if opts.Height != nil {
			*opts.Height = extent.Height
		}
	}

	formats, err := EnumerateSurfaceFormats(drv, opts.PhysicalDevice, opts.Surface)
	if err != nil {
		return Swapchain{}, err
	}
	if !hasSurfaceFormat(formats, PreferredSurfaceFormat) {
		logger.WithField("available", formats).Error("preferred surface format not available")
		return Swapchain{}, errors.Wrap(ErrNotAvailable, "surface format B8G8R8A8_UNORM / SRGB_NONLINEAR")
	}

	var old device.Swapchain
	if previous != nil {
		old = *previous
	}

	createInfo := device.SwapchainCreateInfo{
		Surface:        opts.Surface,
		MinImageCount:  imageCount,
		Format:         PreferredSurfaceFormat.Format,
		ColorSpace:     PreferredSurfaceFormat.ColorSpace,
		Extent:         extent,
		ArrayLayers:    1,
		Usage:          opts.Usage,
		SharingMode:    device.SharingModeExclusive,
		PreTransform:   opts.Transform,
		CompositeAlpha: CompositeAlpha(caps.SupportedCompositeAlpha),
		PresentMode:    opts.PresentMode,
		Clipped:        true,
		OldSwapchain:   old,
	}

	var handle device.Swapchain
	if err := drv.CreateSwapchain(opts.Device, &createInfo, &handle); err != nil {
		logger.WithFields(log.Fields{
			"extent": extent,
			"images": imageCount,
		}).Error(err)
		return Swapchain{}, errors.Wrap(err, "vkCreateSwapchainKHR")
	}
	if handle == 0 {
		logger.Error("null swapchain handle")
		return Swapchain{}, errors.Wrap(ErrNullHandle, "vkCreateSwapchainKHR")
	}

	if old != 0 {
		DestroySwapchain(drv, opts.Device, previous)
	}

	images, err := enumerate("vkGetSwapchainImagesKHR", func(count *uint32, out []device.Image) error {
		return drv.GetSwapchainImages(opts.Device, handle, count, out)
	})
	if err != nil {
		DestroySwapchain(drv, opts.Device, &handle)
		return Swapchain{}, err
	}

	logger.WithFields(log.Fields{
		"extent":      extent,
		"images":      len(images),
		"presentMode": PresentModeName(opts.PresentMode),
		"replaced":    old != 0,
	}).Info("swapchain created")

	return Swapchain{
		Handle:      handle,
		Images:      images,
		Extent:      extent,
		Format:      PreferredSurfaceFormat,
		PresentMode: opts.PresentMode,
	}, nil
}

// DestroySwapchain destroys the swapchain and clears the handle. A null
// swapchain is only reported.
func DestroySwapchain(drv device.Driver, d device.Device, swapchain *device.Swapchain) {
	if swapchain == nil || *swapchain == 0 {
		log.WithField("func", "core.DestroySwapchain").Warn("swapchain is null")
		return
	}
	if err := drv.DestroySwapchain(d, *swapchain); err != nil {
		log.WithField("func", "core.DestroySwapchain").Error(err)
	}
	*swapchain = 0
}
