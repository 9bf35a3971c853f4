// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/device/devicetest"
	"github.com/devblok/vkboot/loader"
)

func TestEnumerateAvailable(t *testing.T) {
	f := devicetest.Default()

	layers, err := core.EnumerateAvailableLayers(f)
	require.NoError(t, err)
	assert.Equal(t, f.Layers, layers)

	extensions, err := core.EnumerateAvailableExtensions(f)
	require.NoError(t, err)
	assert.Equal(t, f.Extensions, extensions)
	assert.Equal(t, 2, f.Calls["vkEnumerateInstanceExtensionProperties"])
}

func TestEnumerateAvailableFailures(t *testing.T) {
	f := devicetest.Default()
	f.FailFill["vkEnumerateInstanceExtensionProperties"] = device.ErrorOutOfHostMemory

	extensions, err := core.EnumerateAvailableExtensions(f)
	assert.Nil(t, extensions)
	assert.True(t, errors.Is(err, device.ErrDriverStatus))

	f.Fail["vkEnumerateInstanceLayerProperties"] = device.ErrorInitializationFailed
	layers, err := core.EnumerateAvailableLayers(f)
	assert.Nil(t, layers)
	assert.Equal(t, device.ErrorInitializationFailed, device.StatusOf(err))
	assert.Equal(t, 1, f.Calls["vkEnumerateInstanceLayerProperties"])
}

func TestEnumerateIncompleteReturnsNothing(t *testing.T) {
	f := devicetest.Default()
	f.FailFill["vkEnumerateInstanceLayerProperties"] = device.Incomplete

	layers, err := core.EnumerateAvailableLayers(f)
	assert.Nil(t, layers)
	assert.Equal(t, device.Incomplete, device.StatusOf(err))
}

func TestCreateInstanceValidates(t *testing.T) {
	f := devicetest.New()
	f.Extensions = []device.ExtensionProperties{{Name: "A"}, {Name: "B"}}

	instance, err := core.CreateInstance(f, core.InstanceOptions{
		AvailableExtensions: f.Extensions,
		DesiredExtensions:   []string{"A"},
	})
	require.NoError(t, err)
	assert.NotZero(t, instance.Handle)
	assert.Equal(t, []string{"A"}, f.InstanceInfo.Extensions)
	assert.Equal(t, core.EngineName, f.InstanceInfo.Application.EngineName)

	_, err = core.CreateInstance(f, core.InstanceOptions{
		AvailableExtensions: f.Extensions,
		DesiredExtensions:   []string{"C"},
	})
	assert.True(t, errors.Is(err, core.ErrNotAvailable))
	assert.Equal(t, 1, f.Calls["vkCreateInstance"], "a missing extension fails before the driver is asked")
}

func TestCreateInstanceExactNames(t *testing.T) {
	f := devicetest.Default()

	_, err := core.CreateInstance(f, core.InstanceOptions{
		AvailableLayers: f.Layers,
		DesiredLayers:   []string{"VK_LAYER_KHRONOS"},
	})
	assert.True(t, errors.Is(err, core.ErrNotAvailable))

	_, err = core.CreateInstance(f, core.InstanceOptions{
		AvailableExtensions: f.Extensions,
		DesiredExtensions:   []string{"vk_khr_surface"},
	})
	assert.True(t, errors.Is(err, core.ErrNotAvailable))
	assert.Zero(t, f.Calls["vkCreateInstance"])
}

func TestCreateInstanceDriverFailure(t *testing.T) {
	f := devicetest.Default()
	f.Fail["vkCreateInstance"] = device.ErrorIncompatibleDriver

	_, err := core.CreateInstance(f, core.InstanceOptions{})
	assert.Equal(t, device.ErrorIncompatibleDriver, device.StatusOf(err))
}

func TestCreateInstanceLoadsInstanceTier(t *testing.T) {
	f := devicetest.Default()

	instanceOn(t, f, loader.ExtensionSurface)
	assert.True(t, f.Tables().Instance.Has("vkEnumeratePhysicalDevices"))
	assert.True(t, f.Tables().Instance.Has("vkGetPhysicalDeviceSurfaceSupportKHR"))
	assert.False(t, f.Tables().Instance.Has("vkCreateDebugReportCallbackEXT"))
}

func TestCreateInstanceInstanceTierFailure(t *testing.T) {
	f := devicetest.Default()
	f.Missing["vkDestroySurfaceKHR"] = true

	_, err := core.CreateInstance(f, core.InstanceOptions{
		AvailableExtensions: f.Extensions,
		DesiredExtensions:   []string{loader.ExtensionSurface},
	})
	assert.True(t, errors.Is(err, loader.ErrSymbolNotFound))
	assert.Equal(t, 1, f.Calls["vkDestroyInstance"])
	assert.Zero(t, f.LiveInstance, "the new instance is destroyed")
	assert.Equal(t, []string{"instance"}, f.Destroyed)
}

func TestCreateInstanceWithDebug(t *testing.T) {
	f := devicetest.Default()
	var messages []string

	instance, err := core.CreateInstance(f, core.InstanceOptions{
		AvailableExtensions: f.Extensions,
		Debug: func(flags device.DebugReportFlags, layerPrefix, message string) {
			messages = append(messages, message)
		},
	})
	require.NoError(t, err)
	assert.Contains(t, instance.Extensions, loader.ExtensionDebugReport)
	assert.NotZero(t, instance.Debug)
	require.NotNil(t, f.Debug)

	f.Debug(device.DebugReportError, "validation", "bad things")
	assert.Equal(t, []string{"bad things"}, messages)

	core.DestroyInstance(f, &instance)
	assert.Equal(t, []string{"debug report", "instance"}, f.Destroyed)
	assert.Zero(t, instance.Handle)
	assert.Zero(t, instance.Debug)
}

func TestDestroyInstance(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	f := devicetest.Default()
	instance := instanceOn(t, f)

	core.DestroyInstance(f, &instance)
	assert.Zero(t, instance.Handle)
	assert.Zero(t, f.LiveInstance)

	hook.Reset()
	core.DestroyInstance(f, &instance)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, log.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, 1, f.Calls["vkDestroyInstance"])
}

func TestDebugLogger(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	core.DebugLogger(device.DebugReportError, "layer", "broken")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, log.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "layer", hook.LastEntry().Data["layer"])

	core.DebugLogger(device.DebugReportPerformanceWarning, "layer", "slow")
	assert.Equal(t, log.WarnLevel, hook.LastEntry().Level)
}
