// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core negotiates a Vulkan instance, physical device, logical device
// and swapchain between what the application asks for and what the driver offers.
package core

import (
	"github.com/cockroachdb/errors"

	"github.com/devblok/vkboot/device"
)

var (
	// ErrNotAvailable is returned when a desired layer, extension, present mode,
	// format, usage or transform is not offered
	ErrNotAvailable = errors.New("not available")
	// ErrNoQueueFamilies is returned for a physical device without queue families
	ErrNoQueueFamilies = errors.New("physical device reports no queue families")
	// ErrNoSuitableDevice is returned when no candidate satisfies the requirements
	ErrNoSuitableDevice = errors.New("no suitable physical device")
	// ErrNullHandle is returned when the driver reports success but hands out a null handle
	ErrNullHandle = errors.New("driver returned a null handle")
	// ErrInvalidPlan is returned for a queue plan the device cannot satisfy
	ErrInvalidPlan = errors.New("invalid queue plan")
)

// EngineName is reported to the driver on instance creation
const EngineName = "koru"

// EngineVersion is reported to the driver on instance creation
var EngineVersion = device.MakeVersion(0, 1, 0)

// APIVersion is the API version instances are created for
var APIVersion = device.MakeVersion(1, 0, 0)
