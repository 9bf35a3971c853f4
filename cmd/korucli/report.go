// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/device"
)

// Report describes what the driver offers and which device would be picked
type Report struct {
	Session    string        `json:"session"`
	Layers     []string      `json:"layers"`
	Extensions []string      `json:"extensions"`
	Devices    []DeviceEntry `json:"devices"`
	Selected   *int          `json:"selected"`
	Reason     string        `json:"reason,omitempty"`
}

// DeviceEntry is one physical device
type DeviceEntry struct {
	Index         int           `json:"index"`
	Name          string        `json:"name,omitempty"`
	Type          string        `json:"type,omitempty"`
	APIVersion    string        `json:"apiVersion,omitempty"`
	VendorID      uint32        `json:"vendorId,omitempty"`
	DeviceID      uint32        `json:"deviceId,omitempty"`
	Features      []string      `json:"features,omitempty"`
	Extensions    []string      `json:"extensions,omitempty"`
	QueueFamilies []QueueFamily `json:"queueFamilies,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// QueueFamily is one queue family of a physical device
type QueueFamily struct {
	Index        int      `json:"index"`
	Count        uint32   `json:"count"`
	Capabilities []string `json:"capabilities"`
}

func version(v uint32) string {
	major, minor, patch := device.Version(v)
	return fmt.Sprintf("%d.%d.%d", major, minor, patch)
}

func describe(index int, c core.Characteristics) DeviceEntry {
	entry := DeviceEntry{
		Index:      index,
		Name:       c.Properties.Name,
		Type:       c.Properties.Type.String(),
		APIVersion: version(c.Properties.APIVersion),
		VendorID:   c.Properties.VendorID,
		DeviceID:   c.Properties.DeviceID,
		Features:   c.Features.Names(),
	}
	for _, ext := range c.Extensions {
		entry.Extensions = append(entry.Extensions, ext.Name)
	}
	for i, family := range c.QueueFamilies {
		entry.QueueFamilies = append(entry.QueueFamilies, QueueFamily{
			Index:        i,
			Count:        family.Count,
			Capabilities: core.QueueFlagNames(family.Flags),
		})
	}
	return entry
}

// buildReport creates a headless instance, describes every physical device
// and runs selection without a surface
func buildReport(drv device.Driver, cfg core.Configuration) (Report, error) {
	report := Report{Session: uuid.New().String()}

	layers, err := core.EnumerateAvailableLayers(drv)
	if err != nil {
		return report, err
	}
	for _, layer := range layers {
		report.Layers = append(report.Layers, layer.Name)
	}
	extensions, err := core.EnumerateAvailableExtensions(drv)
	if err != nil {
		return report, err
	}
	for _, ext := range extensions {
		report.Extensions = append(report.Extensions, ext.Name)
	}

	appVersion, err := cfg.Instance.Version()
	if err != nil {
		return report, err
	}
	instance, err := core.CreateInstance(drv, core.InstanceOptions{
		AvailableLayers:     layers,
		AvailableExtensions: extensions,
		ApplicationName:     cfg.Instance.ApplicationName,
		ApplicationVersion:  appVersion,
	})
	if err != nil {
		return report, err
	}
	defer core.DestroyInstance(drv, &instance)

	candidates, err := core.EnumeratePhysicalDevices(drv, instance.Handle)
	if err != nil {
		return report, err
	}
	for i, pd := range candidates {
		c, err := core.QueryCharacteristics(drv, pd)
		if err != nil {
			report.Devices = append(report.Devices, DeviceEntry{Index: i, Error: err.Error()})
			continue
		}
		report.Devices = append(report.Devices, describe(i, c))
	}

	masks, err := cfg.Device.QueueMasks()
	if err != nil {
		return report, err
	}
	features, err := cfg.Device.FeatureSet()
	if err != nil {
		return report, err
	}
	sel, err := core.SelectPhysicalDevice(drv, candidates, core.SelectOptions{
		Extensions: cfg.Device.Extensions,
		Features:   features,
		QueueMasks: masks,
	})
	if err != nil {
		log.WithField("session", report.Session).Warn(err)
		report.Reason = err.Error()
		return report, nil
	}
	report.Selected = &sel.Index
	return report, nil
}
