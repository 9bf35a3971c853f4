// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer_test

import (
	"testing"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/core/renderer"
	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/device/devicetest"
	"github.com/devblok/vkboot/loader"
)

var fakeWindow byte

func window() unsafe.Pointer {
	return unsafe.Pointer(&fakeWindow)
}

func configuration(t *testing.T) renderer.Configuration {
	t.Helper()
	cfg, err := renderer.NewConfiguration(core.DefaultConfiguration())
	require.NoError(t, err)
	return cfg
}

func TestNewConfiguration(t *testing.T) {
	engine := core.DefaultConfiguration()
	engine.Instance.Debug = true
	engine.Device.Features = []string{"samplerAnisotropy"}

	cfg, err := renderer.NewConfiguration(engine)
	require.NoError(t, err)
	assert.Equal(t, []string{core.ValidationLayer}, cfg.Layers)
	assert.Equal(t, device.MakeVersion(1, 0, 0), cfg.ApplicationVersion)
	assert.Equal(t, []device.QueueFlags{device.QueueGraphics}, cfg.QueueMasks)
	assert.Equal(t, device.FeatureSamplerAnisotropy, cfg.Features)
	assert.Equal(t, device.PresentModeFifo, cfg.PresentMode)
	assert.Equal(t, uint32(800), cfg.ScreenWidth)

	engine.Swapchain.Usage = "paint"
	_, err = renderer.NewConfiguration(engine)
	assert.Error(t, err)
}

func TestInitialise(t *testing.T) {
	f := devicetest.Default()
	r := renderer.NewVulkanRenderer(f, configuration(t))
	assert.NotEqual(t, uuid.Nil, r.Session())

	require.NoError(t, r.Initialise(nil, window(), []string{loader.ExtensionXcbSurface}))

	assert.Equal(t, []string{loader.ExtensionSurface, loader.ExtensionXcbSurface}, f.InstanceInfo.Extensions)
	assert.Equal(t, "Koru3D", f.InstanceInfo.Application.ApplicationName)

	sc := r.Swapchain()
	assert.NotZero(t, sc.Handle)
	assert.Equal(t, device.Extent2D{Width: 800, Height: 600}, sc.Extent)
	assert.Len(t, sc.Images, 3)

	graphics, present := r.Queues()
	assert.NotZero(t, graphics)
	assert.NotZero(t, present)
	assert.Equal(t, "Fake GPU", r.Selection().Characteristics.Properties.Name)

	var stages []string
	for _, lap := range r.Timing() {
		stages = append(stages, lap.Name)
	}
	assert.Equal(t, []string{"instance", "surface", "physical device", "logical device", "swapchain"}, stages)

	r.Destroy()
	assert.Equal(t, []string{"swapchain", "device", "surface", "instance"}, f.Destroyed)
	assert.Zero(t, f.LiveInstance)
	assert.Empty(t, f.LiveSwapchains)

	r.Destroy()
	assert.Len(t, f.Destroyed, 4)
}

func TestInitialiseWithDebug(t *testing.T) {
	f := devicetest.Default()
	cfg := configuration(t)
	cfg.Debug = true
	r := renderer.NewVulkanRenderer(f, cfg)

	require.NoError(t, r.Initialise(nil, window(), nil))
	assert.NotNil(t, f.Debug)
	assert.Contains(t, f.InstanceInfo.Extensions, loader.ExtensionDebugReport)

	r.Destroy()
	assert.Equal(t, "debug report", f.Destroyed[len(f.Destroyed)-2])
}

func TestInitialiseFailureCleansUp(t *testing.T) {
	f := devicetest.Default()
	cfg := configuration(t)
	cfg.PresentMode = device.PresentModeImmediate
	r := renderer.NewVulkanRenderer(f, cfg)

	err := r.Initialise(nil, window(), nil)
	assert.True(t, errors.Is(err, core.ErrNotAvailable))
	assert.Equal(t, []string{"device", "surface", "instance"}, f.Destroyed)
	assert.Zero(t, f.Calls["vkCreateSwapchainKHR"])
}

func TestInitialiseNoSuitableDevice(t *testing.T) {
	f := devicetest.Default()
	cfg := configuration(t)
	cfg.Features = device.FeatureTextureCompressionBC
	r := renderer.NewVulkanRenderer(f, cfg)

	err := r.Initialise(nil, window(), nil)
	assert.True(t, errors.Is(err, core.ErrNoSuitableDevice))
	assert.Equal(t, []string{"surface", "instance"}, f.Destroyed)
}

func TestInitialisePresentFamilyNotPlanned(t *testing.T) {
	f := devicetest.Default()
	f.GPUs[0].PresentFamilies = []uint32{1}
	r := renderer.NewVulkanRenderer(f, configuration(t))

	err := r.Initialise(nil, window(), nil)
	assert.True(t, errors.Is(err, renderer.ErrPresentNotPlanned))
	assert.Zero(t, f.Calls["vkCreateDevice"])
}

func TestResize(t *testing.T) {
	f := devicetest.Default()
	f.SurfaceCapabilities.CurrentExtent = device.Extent2D{Width: core.UndefinedExtent, Height: core.UndefinedExtent}
	r := renderer.NewVulkanRenderer(f, configuration(t))

	assert.True(t, errors.Is(r.Resize(640, 480), renderer.ErrNotInitialised))

	require.NoError(t, r.Initialise(nil, window(), nil))
	first := r.Swapchain()
	assert.Equal(t, device.Extent2D{Width: 800, Height: 600}, first.Extent)

	require.NoError(t, r.Resize(0, 480))
	assert.Equal(t, first.Handle, r.Swapchain().Handle)

	require.NoError(t, r.Resize(1280, 720))
	second := r.Swapchain()
	assert.NotEqual(t, first.Handle, second.Handle)
	assert.Equal(t, device.Extent2D{Width: 1280, Height: 720}, second.Extent)
	assert.Equal(t, first.Handle, f.SwapchainInfo.OldSwapchain)
	assert.Len(t, f.LiveSwapchains, 1)
	assert.Equal(t, 1, f.Calls["vkDeviceWaitIdle"])

	r.Destroy()
}

func TestResizeImageFailureDropsSwapchain(t *testing.T) {
	f := devicetest.Default()
	f.SurfaceCapabilities.CurrentExtent = device.Extent2D{Width: core.UndefinedExtent, Height: core.UndefinedExtent}
	r := renderer.NewVulkanRenderer(f, configuration(t))
	require.NoError(t, r.Initialise(nil, window(), nil))

	f.FailFill["vkGetSwapchainImagesKHR"] = device.ErrorOutOfHostMemory
	err := r.Resize(1280, 720)
	assert.Equal(t, device.ErrorOutOfHostMemory, device.StatusOf(err))
	assert.Empty(t, f.LiveSwapchains)
	assert.Equal(t, core.Swapchain{}, r.Swapchain(), "no stale images or extent remain")
	assert.Equal(t, float32(0), r.View().Viewport.Width)

	r.Destroy()
	assert.Equal(t, []string{"swapchain", "swapchain", "device", "surface", "instance"}, f.Destroyed)
}

func TestGraphicsQueueFollowsGraphicsMask(t *testing.T) {
	f := devicetest.Default()
	f.GPUs[0].QueueFamilies = []device.QueueFamilyProperties{
		{Flags: device.QueueTransfer, Count: 1},
		{Flags: device.QueueGraphics | device.QueueCompute | device.QueueTransfer, Count: 2},
	}
	f.GPUs[0].PresentFamilies = []uint32{1}
	cfg := configuration(t)
	cfg.QueueMasks = []device.QueueFlags{device.QueueTransfer, device.QueueGraphics}
	r := renderer.NewVulkanRenderer(f, cfg)
	require.NoError(t, r.Initialise(nil, window(), nil))
	defer r.Destroy()

	assert.Equal(t, []uint32{0, 1}, r.Selection().QueueFamilies)
	graphics, present := r.Queues()
	assert.Equal(t, present, graphics, "both come from family 1, queue 0")
}

func TestView(t *testing.T) {
	v := renderer.NewView(device.Extent2D{Width: 800, Height: 600})
	assert.Equal(t, float32(800), v.Viewport.Width)
	assert.Equal(t, float32(1), v.Viewport.MaxDepth)
	assert.Equal(t, uint32(600), v.Scissor.Extent.Height)
	assert.Less(t, v.Projection[5], float32(0))

	empty := renderer.NewView(device.Extent2D{})
	assert.Equal(t, mgl32.Ident4(), empty.Projection)
}
