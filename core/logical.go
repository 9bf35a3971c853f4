// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkboot/device"
)

// CreateLogicalDevice creates a device straight from the queue plan and loads
// its functions. The plan and extensions are trusted, selection validated them.
func CreateLogicalDevice(drv device.Driver, pd device.PhysicalDevice, plan QueuePlan, extensions []string, features device.Features) (device.Device, error) {
	createInfo := device.DeviceCreateInfo{
		Queues:     plan.CreateInfos(),
		Extensions: extensions,
		Features:   features,
	}

	var handle device.Device
	if err := drv.CreateDevice(pd, &createInfo, &handle); err != nil {
		log.WithFields(log.Fields{
			"func":       "core.CreateLogicalDevice",
			"queues":     plan.Requests,
			"extensions": extensions,
			"features":   features,
		}).Error(err)
		return 0, errors.Wrap(err, "vkCreateDevice")
	}
	if handle == 0 {
		log.WithField("func", "core.CreateLogicalDevice").Error("null device handle")
		return 0, errors.Wrap(ErrNullHandle, "vkCreateDevice")
	}

	if err := drv.LoadDeviceFunctions(handle, extensions); err != nil {
		log.WithFields(log.Fields{
			"func":       "core.CreateLogicalDevice",
			"extensions": extensions,
		}).Error(err)
		if derr := drv.DestroyDevice(handle); derr != nil {
			log.WithField("func", "core.CreateLogicalDevice").Warn(derr)
		}
		return 0, errors.Wrap(err, "device functions")
	}

	log.WithFields(log.Fields{
		"queues":     len(plan.Requests),
		"extensions": extensions,
	}).Info("logical device created")
	return handle, nil
}

// DestroyLogicalDevice waits for the device to go idle, destroys it and clears
// the handle. A failed wait is logged and destruction goes ahead. A null device
// is only reported.
func DestroyLogicalDevice(drv device.Driver, handle *device.Device) {
	if handle == nil || *handle == 0 {
		log.WithField("func", "core.DestroyLogicalDevice").Warn("device is null")
		return
	}

	if err := drv.DeviceWaitIdle(*handle); err != nil {
		log.WithField("func", "core.DestroyLogicalDevice").Warn(errors.Wrap(err, "vkDeviceWaitIdle"))
	}
	if err := drv.DestroyDevice(*handle); err != nil {
		log.WithField("func", "core.DestroyLogicalDevice").Error(errors.Wrap(err, "vkDestroyDevice"))
	}
	*handle = 0
}

// GetQueue returns a queue of the device
func GetQueue(drv device.Driver, handle device.Device, family, index uint32) (device.Queue, error) {
	queue, err := drv.GetDeviceQueue(handle, family, index)
	if err != nil {
		log.WithFields(log.Fields{
			"func":   "core.GetQueue",
			"family": family,
			"index":  index,
		}).Error(err)
		return 0, errors.Wrap(err, "vkGetDeviceQueue")
	}
	if queue == 0 {
		return 0, errors.Wrapf(ErrNullHandle, "vkGetDeviceQueue(%d, %d)", family, index)
	}
	return queue, nil
}
