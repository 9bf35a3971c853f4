// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/cockroachdb/errors"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/device"
)

// Configuration describes the renderer configuration
type Configuration struct {
	ApplicationName    string
	ApplicationVersion uint32

	Layers             []string
	InstanceExtensions []string
	Debug              bool

	DeviceExtensions []string
	QueueMasks       []device.QueueFlags
	Features         device.Features

	PresentMode device.PresentMode
	Usage       device.ImageUsageFlags
	Transform   device.SurfaceTransformFlags

	ScreenWidth  uint32
	ScreenHeight uint32
}

// NewConfiguration resolves the names of an engine configuration
func NewConfiguration(cfg core.Configuration) (Configuration, error) {
	version, err := cfg.Instance.Version()
	if err != nil {
		return Configuration{}, errors.Wrap(err, "instance")
	}
	masks, err := cfg.Device.QueueMasks()
	if err != nil {
		return Configuration{}, errors.Wrap(err, "device")
	}
	features, err := cfg.Device.FeatureSet()
	if err != nil {
		return Configuration{}, errors.Wrap(err, "device")
	}
	mode, usage, transform, err := cfg.Swapchain.Negotiation()
	if err != nil {
		return Configuration{}, errors.Wrap(err, "swapchain")
	}

	return Configuration{
		ApplicationName:    cfg.Instance.ApplicationName,
		ApplicationVersion: version,
		Layers:             cfg.Instance.InstanceLayers(),
		InstanceExtensions: cfg.Instance.Extensions,
		Debug:              cfg.Instance.Debug,
		DeviceExtensions:   cfg.Device.Extensions,
		QueueMasks:         masks,
		Features:           features,
		PresentMode:        mode,
		Usage:              usage,
		Transform:          transform,
		ScreenWidth:        cfg.Swapchain.Width,
		ScreenHeight:       cfg.Swapchain.Height,
	}, nil
}
