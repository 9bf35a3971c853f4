// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/device/devicetest"
	"github.com/devblok/vkboot/loader"
)

func TestFindQueueFamilyIndex(t *testing.T) {
	families := []device.QueueFamilyProperties{
		{Flags: device.QueueGraphics | device.QueueCompute, Count: 0},
		{Flags: device.QueueTransfer, Count: 2},
		{Flags: device.QueueGraphics | device.QueueCompute | device.QueueTransfer, Count: 1},
		{Flags: device.QueueGraphics | device.QueueCompute, Count: 16},
	}

	cases := []struct {
		mask  device.QueueFlags
		index uint32
		found bool
	}{
		{device.QueueGraphics, 2, true},
		{device.QueueTransfer, 1, true},
		{device.QueueGraphics | device.QueueCompute, 2, true},
		{device.QueueCompute | device.QueueTransfer, 2, true},
		{device.QueueSparseBinding, 0, false},
		{device.QueueGraphics | device.QueueProtected, 0, false},
	}
	for _, c := range cases {
		for i := 0; i < 3; i++ {
			index, found := core.FindQueueFamilyIndex(families, c.mask)
			assert.Equal(t, c.found, found, "mask %#x", c.mask)
			assert.Equal(t, c.index, index, "mask %#x", c.mask)
		}
	}

	_, found := core.FindQueueFamilyIndex(nil, device.QueueGraphics)
	assert.False(t, found)
}

func TestEnumerationCounts(t *testing.T) {
	f := devicetest.Default()
	f.GPUs = append(f.GPUs, devicetest.DiscreteGPU("second"), devicetest.DiscreteGPU("third"))
	instance := instanceOn(t, f, loader.ExtensionSurface)

	candidates, err := core.EnumeratePhysicalDevices(f, instance.Handle)
	require.NoError(t, err)
	assert.Len(t, candidates, 3)

	for i, pd := range candidates {
		c, err := core.QueryCharacteristics(f, pd)
		require.NoError(t, err)
		assert.Equal(t, f.GPUs[i].QueueFamilies, c.QueueFamilies)
		assert.Equal(t, f.GPUs[i].Extensions, c.Extensions)
		assert.Equal(t, f.GPUs[i].Properties, c.Properties)
		assert.Equal(t, f.GPUs[i].Features, c.Features)
	}
}

func TestEnumeratePhysicalDevicesNeedsInstanceTier(t *testing.T) {
	f := devicetest.Default()

	candidates, err := core.EnumeratePhysicalDevices(f, 1)
	assert.Nil(t, candidates)
	assert.True(t, errors.Is(err, loader.ErrSymbolNotLoaded))
}

func TestQueryCharacteristicsWithoutQueueFamilies(t *testing.T) {
	f := devicetest.Default()
	f.GPUs[0].QueueFamilies = nil
	instanceOn(t, f)

	_, err := core.QueryCharacteristics(f, devicetest.Handle(0))
	assert.True(t, errors.Is(err, core.ErrNoQueueFamilies))
}

func selectOn(t *testing.T, f *devicetest.Fake, opts core.SelectOptions) (core.Selection, error) {
	t.Helper()
	instance := instanceOn(t, f, loader.ExtensionSurface)
	candidates, err := core.EnumeratePhysicalDevices(f, instance.Handle)
	require.NoError(t, err)
	return core.SelectPhysicalDevice(f, candidates, opts)
}

func TestSelectOnlyThirdPresents(t *testing.T) {
	f := devicetest.Default()
	f.GPUs = []devicetest.GPU{
		devicetest.DiscreteGPU("first"),
		devicetest.DiscreteGPU("second"),
		devicetest.DiscreteGPU("third"),
	}
	f.GPUs[0].PresentFamilies = nil
	f.GPUs[1].PresentFamilies = nil
	f.GPUs[2].PresentFamilies = []uint32{1}

	sel, err := selectOn(t, f, core.SelectOptions{
		QueueMasks: []device.QueueFlags{device.QueueGraphics},
		Surface:    0x5,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, sel.Index)
	assert.Equal(t, devicetest.Handle(2), sel.PhysicalDevice)
	assert.True(t, sel.HasPresent)
	assert.Equal(t, uint32(1), sel.PresentFamily)
	assert.Equal(t, "third", sel.Characteristics.Properties.Name)
}

func TestSelectFirstViableWins(t *testing.T) {
	f := devicetest.Default()
	integrated := devicetest.DiscreteGPU("integrated")
	integrated.Properties.Type = device.PhysicalDeviceTypeIntegratedGPU
	f.GPUs = []devicetest.GPU{integrated, devicetest.DiscreteGPU("discrete")}

	sel, err := selectOn(t, f, core.SelectOptions{
		QueueMasks: []device.QueueFlags{device.QueueGraphics},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, sel.Index)
	assert.False(t, sel.HasPresent)
	assert.Zero(t, f.Calls["vkGetPhysicalDeviceSurfaceSupportKHR"])
}

func TestSelectRejectsMissingExtension(t *testing.T) {
	f := devicetest.Default()
	f.GPUs = []devicetest.GPU{devicetest.DiscreteGPU("no swapchain"), devicetest.DiscreteGPU("swapchain")}
	f.GPUs[0].Extensions = []device.ExtensionProperties{{Name: "VK_KHR_swapchain_mutable_format"}}

	sel, err := selectOn(t, f, core.SelectOptions{
		Extensions: []string{loader.ExtensionSwapchain},
		QueueMasks: []device.QueueFlags{device.QueueGraphics},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Index)

	f.GPUs = f.GPUs[:1]
	_, err = selectOn(t, f, core.SelectOptions{
		Extensions: []string{loader.ExtensionSwapchain},
		QueueMasks: []device.QueueFlags{device.QueueGraphics},
	})
	assert.True(t, errors.Is(err, core.ErrNoSuitableDevice))
}

func TestSelectRejectsMissingFeatures(t *testing.T) {
	f := devicetest.Default()
	f.GPUs = []devicetest.GPU{devicetest.DiscreteGPU("plain"), devicetest.DiscreteGPU("wide")}
	f.GPUs[1].Features |= device.FeatureWideLines

	sel, err := selectOn(t, f, core.SelectOptions{
		Features:   device.FeatureWideLines | device.FeatureSamplerAnisotropy,
		QueueMasks: []device.QueueFlags{device.QueueGraphics},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Index)
}

func TestSelectRejectsMissingQueueCapability(t *testing.T) {
	f := devicetest.Default()

	_, err := selectOn(t, f, core.SelectOptions{
		QueueMasks: []device.QueueFlags{device.QueueGraphics, device.QueueSparseBinding},
	})
	assert.True(t, errors.Is(err, core.ErrNoSuitableDevice))

	_, err = selectOn(t, f, core.SelectOptions{})
	assert.True(t, errors.Is(err, core.ErrInvalidPlan))
}

func TestSelectBuildsQueuePlan(t *testing.T) {
	f := devicetest.Default()

	sel, err := selectOn(t, f, core.SelectOptions{
		QueueMasks: []device.QueueFlags{
			device.QueueGraphics,
			device.QueueCompute,
			device.QueueTransfer,
			device.QueueGraphics,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 0, 0, 0}, sel.QueueFamilies)
	assert.Equal(t, []core.QueueRequest{{FamilyIndex: 0, Count: 4}}, sel.Plan.Requests)
	assert.Equal(t, []float32{0.9, 0.9, 0.9, 0.9}, sel.Plan.Priorities)
}

func TestSelectSeparateFamilies(t *testing.T) {
	f := devicetest.Default()
	f.GPUs[0].QueueFamilies = []device.QueueFamilyProperties{
		{Flags: device.QueueTransfer, Count: 2},
		{Flags: device.QueueGraphics | device.QueueTransfer, Count: 1},
		{Flags: device.QueueCompute, Count: 3},
	}

	sel, err := selectOn(t, f, core.SelectOptions{
		QueueMasks: []device.QueueFlags{
			device.QueueCompute,
			device.QueueGraphics,
			device.QueueCompute,
			device.QueueTransfer,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 1, 2, 0}, sel.QueueFamilies)
	assert.Equal(t, []core.QueueRequest{
		{FamilyIndex: 0, Count: 1},
		{FamilyIndex: 1, Count: 1},
		{FamilyIndex: 2, Count: 2},
	}, sel.Plan.Requests)
	assert.Len(t, sel.Plan.Priorities, 2)
	assert.NoError(t, sel.Plan.Validate(sel.Characteristics.QueueFamilies))
}

func TestSelectRejectsOversubscribedFamily(t *testing.T) {
	f := devicetest.Default()
	small := devicetest.DiscreteGPU("small")
	small.QueueFamilies = []device.QueueFamilyProperties{
		{Flags: device.QueueGraphics | device.QueueCompute, Count: 1},
	}
	f.GPUs = []devicetest.GPU{small, devicetest.DiscreteGPU("big")}

	sel, err := selectOn(t, f, core.SelectOptions{
		QueueMasks: []device.QueueFlags{device.QueueGraphics, device.QueueCompute},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Index)

	for _, req := range sel.Plan.Requests {
		require.Less(t, int(req.FamilyIndex), len(sel.Characteristics.QueueFamilies))
		assert.LessOrEqual(t, req.Count, sel.Characteristics.QueueFamilies[req.FamilyIndex].Count)
	}
}

func TestSelectSkipsBrokenCandidate(t *testing.T) {
	f := devicetest.Default()
	f.GPUs = []devicetest.GPU{devicetest.DiscreteGPU("broken"), devicetest.DiscreteGPU("fine")}
	f.GPUs[0].QueueFamilies = nil

	sel, err := selectOn(t, f, core.SelectOptions{
		QueueMasks: []device.QueueFlags{device.QueueGraphics},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Index)
}

func TestSelectLastCandidateBroken(t *testing.T) {
	f := devicetest.Default()
	f.GPUs[0].QueueFamilies = nil

	_, err := selectOn(t, f, core.SelectOptions{
		QueueMasks: []device.QueueFlags{device.QueueGraphics},
	})
	assert.True(t, errors.Is(err, core.ErrNoSuitableDevice))
	assert.True(t, errors.Is(err, core.ErrNoQueueFamilies))
}

func TestQueuePlanValidate(t *testing.T) {
	families := []device.QueueFamilyProperties{
		{Flags: device.QueueGraphics, Count: 2},
		{Flags: device.QueueTransfer, Count: 1},
	}
	priorities := []float32{0.9, 0.9}

	valid := core.QueuePlan{
		Requests:   []core.QueueRequest{{FamilyIndex: 0, Count: 2}, {FamilyIndex: 1, Count: 1}},
		Priorities: priorities,
	}
	assert.NoError(t, valid.Validate(families))

	invalid := []core.QueuePlan{
		{},
		{Requests: []core.QueueRequest{{FamilyIndex: 2, Count: 1}}, Priorities: priorities},
		{Requests: []core.QueueRequest{{FamilyIndex: 1, Count: 2}}, Priorities: priorities},
		{Requests: []core.QueueRequest{{FamilyIndex: 0, Count: 0}}, Priorities: priorities},
		{Requests: []core.QueueRequest{{FamilyIndex: 0, Count: 1}, {FamilyIndex: 0, Count: 1}}, Priorities: priorities},
		{Requests: []core.QueueRequest{{FamilyIndex: 0, Count: 2}}, Priorities: priorities[:1]},
	}
	for i, plan := range invalid {
		assert.True(t, errors.Is(plan.Validate(families), core.ErrInvalidPlan), "plan %d", i)
	}
}

func TestQueuePlanCreateInfos(t *testing.T) {
	plan := core.QueuePlan{
		Requests:   []core.QueueRequest{{FamilyIndex: 0, Count: 2}, {FamilyIndex: 3, Count: 1}},
		Priorities: []float32{0.9, 0.9},
	}
	infos := plan.CreateInfos()
	require.Len(t, infos, 2)
	assert.Equal(t, uint32(3), infos[1].FamilyIndex)
	assert.Equal(t, uint32(1), infos[1].Count)
	assert.Equal(t, plan.Priorities, infos[1].Priorities)
}
