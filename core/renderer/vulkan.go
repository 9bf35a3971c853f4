// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package renderer brings a Vulkan device from nothing to a presentable
// swapchain and tears it down again.
package renderer

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/device"
)

// ErrPresentNotPlanned is returned when the family that presents to the
// surface is not among the requested queue families
var ErrPresentNotPlanned = errors.New("present family has no planned queue")

// ErrNotInitialised is returned by operations that need a swapchain
var ErrNotInitialised = errors.New("renderer is not initialised")

// Vulkan is a Vulkan API renderer
type Vulkan struct {
	drv     device.Driver
	cfg     Configuration
	session uuid.UUID
	log     *log.Entry
	timing  *core.Stopwatch

	instance  core.Instance
	surface   device.Surface
	selection core.Selection
	device    device.Device
	graphics  device.Queue
	present   device.Queue

	presentModes []device.PresentMode
	swapchain    core.Swapchain

	width  uint32
	height uint32
}

// NewVulkanRenderer creates a renderer on top of a driver. Nothing is created
// until Initialise.
func NewVulkanRenderer(drv device.Driver, cfg Configuration) *Vulkan {
	session := uuid.New()
	return &Vulkan{
		drv:     drv,
		cfg:     cfg,
		session: session,
		log:     log.WithField("session", session.String()),
		width:   cfg.ScreenWidth,
		height:  cfg.ScreenHeight,
	}
}

// Session identifies this renderer in the log
func (v *Vulkan) Session() uuid.UUID {
	return v.session
}

// Initialise creates the instance, surface, device and swapchain for a window.
// Extensions are instance extensions the windowing system requires. On error
// everything created so far is destroyed.
func (v *Vulkan) Initialise(display, window unsafe.Pointer, extensions []string) error {
	v.timing = core.NewStopwatch()
	if err := v.initialise(display, window, extensions); err != nil {
		v.log.WithField("laps", v.timing.Laps()).Error(err)
		v.Destroy()
		return err
	}
	v.log.WithFields(log.Fields{
		"device": v.selection.Characteristics.Properties.Name,
		"total":  v.timing.Total(),
	}).Info("renderer initialised")
	return nil
}

func (v *Vulkan) initialise(display, window unsafe.Pointer, extensions []string) error {
	layers, err := core.EnumerateAvailableLayers(v.drv)
	if err != nil {
		return err
	}
	available, err := core.EnumerateAvailableExtensions(v.drv)
	if err != nil {
		return err
	}

	opts := core.InstanceOptions{
		AvailableLayers:     layers,
		DesiredLayers:       v.cfg.Layers,
		AvailableExtensions: available,
		DesiredExtensions:   merge(v.cfg.InstanceExtensions, extensions),
		ApplicationName:     v.cfg.ApplicationName,
		ApplicationVersion:  v.cfg.ApplicationVersion,
	}
	if v.cfg.Debug {
		opts.Debug = core.DebugLogger
	}
	if v.instance, err = core.CreateInstance(v.drv, opts); err != nil {
		return err
	}
	v.lap("instance")

	if v.surface, err = core.CreateSurface(v.drv, v.instance.Handle, display, window); err != nil {
		return err
	}
	v.lap("surface")

	candidates, err := core.EnumeratePhysicalDevices(v.drv, v.instance.Handle)
	if err != nil {
		return err
	}
	v.selection, err = core.SelectPhysicalDevice(v.drv, candidates, core.SelectOptions{
		Extensions: v.cfg.DeviceExtensions,
		Features:   v.cfg.Features,
		QueueMasks: v.cfg.QueueMasks,
		Surface:    v.surface,
	})
	if err != nil {
		return err
	}
	if !planned(v.selection.Plan, v.selection.PresentFamily) {
		return errors.Wrapf(ErrPresentNotPlanned, "family %d", v.selection.PresentFamily)
	}
	v.lap("physical device")

	v.device, err = core.CreateLogicalDevice(v.drv, v.selection.PhysicalDevice, v.selection.Plan,
		v.cfg.DeviceExtensions, v.cfg.Features)
	if err != nil {
		return err
	}
	if v.graphics, err = core.GetQueue(v.drv, v.device, graphicsFamily(v.cfg.QueueMasks, v.selection), 0); err != nil {
		return err
	}
	if v.present, err = core.GetQueue(v.drv, v.device, v.selection.PresentFamily, 0); err != nil {
		return err
	}
	v.lap("logical device")

	if v.presentModes, err = core.EnumeratePresentModes(v.drv, v.selection.PhysicalDevice, v.surface); err != nil {
		return err
	}
	if err := v.createSwapchain(); err != nil {
		return err
	}
	v.lap("swapchain")
	return nil
}

func (v *Vulkan) lap(stage string) {
	d := v.timing.Lap(stage)
	v.log.WithFields(log.Fields{
		"stage":    stage,
		"duration": d,
	}).Debug("stage done")
}

func (v *Vulkan) createSwapchain() error {
	sc, err := core.CreateSwapchain(v.drv, core.SwapchainOptions{
		PhysicalDevice: v.selection.PhysicalDevice,
		Device:         v.device,
		Surface:        v.surface,
		PresentModes:   v.presentModes,
		PresentMode:    v.cfg.PresentMode,
		Usage:          v.cfg.Usage,
		Transform:      v.cfg.Transform,
		Width:          &v.width,
		Height:         &v.height,
	}, &v.swapchain.Handle)
	if err != nil {
		if v.swapchain.Handle == 0 {
			// the previous swapchain is gone along with its images
			v.swapchain = core.Swapchain{}
		}
		return err
	}
	v.swapchain = sc
	return nil
}

// Resize recreates the swapchain for a new window size. A zero sized window
// is minimised and keeps the current swapchain.
func (v *Vulkan) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		v.log.WithFields(log.Fields{
			"width":  width,
			"height": height,
		}).Debug("resize ignored")
		return nil
	}
	if v.swapchain.Handle == 0 {
		return ErrNotInitialised
	}

	if err := v.drv.DeviceWaitIdle(v.device); err != nil {
		return errors.Wrap(err, "vkDeviceWaitIdle")
	}
	v.width, v.height = width, height
	if err := v.createSwapchain(); err != nil {
		return errors.Wrap(err, "recreate swapchain")
	}
	return nil
}

// View returns the full screen view of the current swapchain
func (v *Vulkan) View() View {
	return NewView(v.swapchain.Extent)
}

// Swapchain returns the current swapchain
func (v *Vulkan) Swapchain() core.Swapchain {
	return v.swapchain
}

// Selection returns the selected physical device
func (v *Vulkan) Selection() core.Selection {
	return v.selection
}

// Queues returns the graphics and present queues. The graphics queue comes from
// the first requested mask with graphics capability.
func (v *Vulkan) Queues() (graphics, present device.Queue) {
	return v.graphics, v.present
}

// Timing returns how long each initialisation stage took
func (v *Vulkan) Timing() []core.Lap {
	if v.timing == nil {
		return nil
	}
	return v.timing.Laps()
}

// Destroy releases everything in reverse order of creation. It is safe after
// a partial Initialise and when called twice.
func (v *Vulkan) Destroy() {
	if v.swapchain.Handle != 0 {
		core.DestroySwapchain(v.drv, v.device, &v.swapchain.Handle)
	}
	v.swapchain = core.Swapchain{}
	v.graphics, v.present = 0, 0
	if v.device != 0 {
		core.DestroyLogicalDevice(v.drv, &v.device)
	}
	if v.surface != 0 {
		core.DestroySurface(v.drv, v.instance.Handle, &v.surface)
	}
	if v.instance.Handle != 0 {
		core.DestroyInstance(v.drv, &v.instance)
	}
}

// graphicsFamily is the family of the first requested graphics queue, or of
// the first requested queue when none asks for graphics
func graphicsFamily(masks []device.QueueFlags, sel core.Selection) uint32 {
	for i, mask := range masks {
		if mask&device.QueueGraphics != 0 && i < len(sel.QueueFamilies) {
			return sel.QueueFamilies[i]
		}
	}
	return sel.QueueFamilies[0]
}

func planned(plan core.QueuePlan, family uint32) bool {
	for _, req := range plan.Requests {
		if req.FamilyIndex == family {
			return true
		}
	}
	return false
}

func merge(lists ...[]string) []string {
	var out []string
	seen := map[string]bool{}
	for _, list := range lists {
		for _, name := range list {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}
