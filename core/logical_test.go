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

func TestCreateLogicalDeviceFromPlan(t *testing.T) {
	f := devicetest.Default()
	b := deviceOn(t, f)

	require.NotNil(t, f.DeviceInfo)
	assert.Equal(t, b.selection.Plan.CreateInfos(), f.DeviceInfo.Queues)
	assert.Equal(t, []string{loader.ExtensionSwapchain}, f.DeviceInfo.Extensions)
	assert.Equal(t, b.selection.Characteristics.Features, f.DeviceInfo.Features)
	assert.Equal(t, f.LiveDevice, b.device)

	_, err := f.Tables().Require("vkCreateSwapchainKHR")
	assert.NoError(t, err)
}

func TestCreateLogicalDeviceFailures(t *testing.T) {
	f := devicetest.Default()
	instanceOn(t, f)
	plan := core.QueuePlan{
		Requests:   []core.QueueRequest{{FamilyIndex: 0, Count: 1}},
		Priorities: []float32{core.DefaultQueuePriority},
	}

	f.Fail["vkCreateDevice"] = device.ErrorFeatureNotPresent
	handle, err := core.CreateLogicalDevice(f, devicetest.Handle(0), plan, nil, device.FeatureWideLines)
	assert.Zero(t, handle)
	assert.Equal(t, device.ErrorFeatureNotPresent, device.StatusOf(err))

	delete(f.Fail, "vkCreateDevice")
	f.Missing["vkAcquireNextImageKHR"] = true
	handle, err = core.CreateLogicalDevice(f, devicetest.Handle(0), plan, []string{loader.ExtensionSwapchain}, 0)
	assert.Zero(t, handle)
	assert.True(t, errors.Is(err, loader.ErrSymbolNotFound))
	assert.Zero(t, f.LiveDevice)
	assert.Equal(t, []string{"device"}, f.Destroyed)
}

func TestDestroyLogicalDevice(t *testing.T) {
	f := devicetest.Default()
	b := deviceOn(t, f)

	core.DestroyLogicalDevice(f, &b.device)
	assert.Zero(t, b.device)
	assert.Zero(t, f.LiveDevice)
	assert.Equal(t, 1, f.Calls["vkDestroyDevice"])
	assert.Less(t, f.Index("vkDeviceWaitIdle"), f.Index("vkDestroyDevice"))
	assert.Nil(t, f.Tables().Device)

	hook := test.NewGlobal()
	defer hook.Reset()

	core.DestroyLogicalDevice(f, &b.device)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, log.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, 1, f.Calls["vkDestroyDevice"])

	core.DestroyLogicalDevice(f, nil)
	assert.Equal(t, 1, f.Calls["vkDestroyDevice"])
}

func TestDestroyLogicalDeviceAfterFailedWait(t *testing.T) {
	f := devicetest.Default()
	b := deviceOn(t, f)
	f.Fail["vkDeviceWaitIdle"] = device.ErrorDeviceLost

	hook := test.NewGlobal()
	defer hook.Reset()

	core.DestroyLogicalDevice(f, &b.device)
	assert.Zero(t, b.device)
	assert.Equal(t, 1, f.Calls["vkDestroyDevice"])

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == log.WarnLevel {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestGetQueue(t *testing.T) {
	f := devicetest.Default()
	b := deviceOn(t, f)

	queue, err := core.GetQueue(f, b.device, 0, 0)
	require.NoError(t, err)
	assert.NotZero(t, queue)

	core.DestroyLogicalDevice(f, &b.device)
	_, err = core.GetQueue(f, b.device, 0, 0)
	assert.True(t, errors.Is(err, loader.ErrSymbolNotLoaded))
}
