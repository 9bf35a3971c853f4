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

// DefaultQueuePriority is given to every requested queue
const DefaultQueuePriority float32 = 0.9

// Characteristics is what a physical device reports about itself
type Characteristics struct {
	Extensions    []device.ExtensionProperties
	Features      device.Features
	Properties    device.PhysicalDeviceProperties
	QueueFamilies []device.QueueFamilyProperties
}

// QueueRequest asks Count queues of one family
type QueueRequest struct {
	FamilyIndex uint32
	Count       uint32
}

// QueuePlan lists the queues a logical device is created with. Every request
// shares the same priorities, sized to the largest count.
type QueuePlan struct {
	Requests   []QueueRequest
	Priorities []float32
}

// Validate checks every request names an existing family and asks no more
// queues than that family has
func (p QueuePlan) Validate(families []device.QueueFamilyProperties) error {
	if len(p.Requests) == 0 {
		return errors.Wrap(ErrInvalidPlan, "no queues requested")
	}
	seen := make(map[uint32]bool, len(p.Requests))
	for _, req := range p.Requests {
		if int(req.FamilyIndex) >= len(families) {
			return errors.Wrapf(ErrInvalidPlan, "family %d does not exist, device has %d", req.FamilyIndex, len(families))
		}
		if seen[req.FamilyIndex] {
			return errors.Wrapf(ErrInvalidPlan, "family %d requested twice", req.FamilyIndex)
		}
		seen[req.FamilyIndex] = true
		if req.Count == 0 {
			return errors.Wrapf(ErrInvalidPlan, "family %d requested with no queues", req.FamilyIndex)
		}
		if req.Count > families[req.FamilyIndex].Count {
			return errors.Wrapf(ErrInvalidPlan, "family %d asked for %d queues, has %d",
				req.FamilyIndex, req.Count, families[req.FamilyIndex].Count)
		}
		if int(req.Count) > len(p.Priorities) {
			return errors.Wrapf(ErrInvalidPlan, "family %d asked for %d queues, only %d priorities",
				req.FamilyIndex, req.Count, len(p.Priorities))
		}
	}
	return nil
}

// CreateInfos converts the plan into queue create infos
func (p QueuePlan) CreateInfos() []device.DeviceQueueCreateInfo {
	infos := make([]device.DeviceQueueCreateInfo, 0, len(p.Requests))
	for _, req := range p.Requests {
		infos = append(infos, device.DeviceQueueCreateInfo{
			FamilyIndex: req.FamilyIndex,
			Count:       req.Count,
			Priorities:  p.Priorities,
		})
	}
	return infos
}

// SelectOptions are the requirements a physical device is selected by
type SelectOptions struct {
	Extensions []string
	Features   device.Features
	// QueueMasks are resolved in order, each one asks for one queue.
	// The same mask may appear more than once.
	QueueMasks []device.QueueFlags
	// Surface, when not null, must be presentable from one of the families
	Surface device.Surface
}

// Selection is the accepted physical device and how its queues are requested
type Selection struct {
	Index           int
	PhysicalDevice  device.PhysicalDevice
	Characteristics Characteristics
	Plan            QueuePlan

	// QueueFamilies holds the family resolved for each requested mask
	QueueFamilies []uint32
	PresentFamily uint32
	HasPresent    bool
}

// EnumeratePhysicalDevices lists the physical devices of an instance
func EnumeratePhysicalDevices(drv device.Driver, instance device.Instance) ([]device.PhysicalDevice, error) {
	return enumerate("vkEnumeratePhysicalDevices", func(count *uint32, out []device.PhysicalDevice) error {
		return drv.EnumeratePhysicalDevices(instance, count, out)
	})
}

// QueryCharacteristics asks a physical device for its extensions, features,
// properties and queue families
func QueryCharacteristics(drv device.Driver, pd device.PhysicalDevice) (Characteristics, error) {
	var c Characteristics

	extensions, err := enumerate("vkEnumerateDeviceExtensionProperties", func(count *uint32, out []device.ExtensionProperties) error {
		return drv.EnumerateDeviceExtensionProperties(pd, count, out)
	})
	if err != nil {
		return Characteristics{}, err
	}
	c.Extensions = extensions

	if c.Features, err = drv.GetPhysicalDeviceFeatures(pd); err != nil {
		return Characteristics{}, errors.Wrap(err, "vkGetPhysicalDeviceFeatures")
	}
	if c.Properties, err = drv.GetPhysicalDeviceProperties(pd); err != nil {
		return Characteristics{}, errors.Wrap(err, "vkGetPhysicalDeviceProperties")
	}

	families, err := enumerate("vkGetPhysicalDeviceQueueFamilyProperties", func(count *uint32, out []device.QueueFamilyProperties) error {
		return drv.GetPhysicalDeviceQueueFamilyProperties(pd, count, out)
	})
	if err != nil {
		return Characteristics{}, err
	}
	if len(families) == 0 {
		log.WithFields(log.Fields{
			"func":   "core.QueryCharacteristics",
			"device": c.Properties.Name,
		}).Error(ErrNoQueueFamilies)
		return Characteristics{}, errors.Wrap(ErrNoQueueFamilies, c.Properties.Name)
	}
	c.QueueFamilies = families

	return c, nil
}

// FindQueueFamilyIndex returns the lowest family that has queues and supports
// every capability of the mask
func FindQueueFamilyIndex(families []device.QueueFamilyProperties, mask device.QueueFlags) (uint32, bool) {
	for i, family := range families {
		if family.Count > 0 && family.Flags&mask == mask {
			return uint32(i), true
		}
	}
	return 0, false
}

// SelectPhysicalDevice returns the first candidate, in enumeration order, that
// satisfies every requirement. Candidates are not ranked.
func SelectPhysicalDevice(drv device.Driver, candidates []device.PhysicalDevice, opts SelectOptions) (Selection, error) {
	if len(opts.QueueMasks) == 0 {
		return Selection{}, errors.Wrap(ErrInvalidPlan, "no queue capabilities requested")
	}

	var lastErr error
	for idx, pd := range candidates {
		logger := log.WithFields(log.Fields{
			"func":      "core.SelectPhysicalDevice",
			"candidate": idx,
		})

		c, err := QueryCharacteristics(drv, pd)
		if err != nil {
			logger.Warn(err)
			lastErr = err
			continue
		}
		lastErr = nil
		logger = logger.WithField("device", c.Properties.Name)

		if missing := missingExtensions(c.Extensions, opts.Extensions); len(missing) > 0 {
			logger.WithField("missing", missing).Info("rejected, extensions not supported")
			continue
		}
		if missing := c.Features.Missing(opts.Features); missing != 0 {
			logger.WithField("missing", missing.String()).Info("rejected, features not supported")
			continue
		}

		sel := Selection{
			Index:           idx,
			PhysicalDevice:  pd,
			Characteristics: c,
		}

		if opts.Surface != 0 {
			family, ok, err := findPresentFamily(drv, pd, c.QueueFamilies, opts.Surface)
			if err != nil {
				logger.Warn(err)
				continue
			}
			if !ok {
				logger.Info("rejected, no family presents to the surface")
				continue
			}
			sel.PresentFamily = family
			sel.HasPresent = true
		}

		requested := make([]uint32, len(c.QueueFamilies))
		resolved := true
		for _, mask := range opts.QueueMasks {
			family, ok := FindQueueFamilyIndex(c.QueueFamilies, mask)
			if !ok {
				logger.WithField("mask", mask).Info("rejected, no family supports the queue mask")
				resolved = false
				break
			}
			requested[family]++
			sel.QueueFamilies = append(sel.QueueFamilies, family)
		}
		if !resolved {
			continue
		}

		sel.Plan = buildQueuePlan(requested)
		if err := sel.Plan.Validate(c.QueueFamilies); err != nil {
			logger.WithField("plan", sel.Plan.Requests).Info(err)
			continue
		}

		logger.WithFields(log.Fields{
			"type":  c.Properties.Type,
			"queue": sel.Plan.Requests,
		}).Info("physical device selected")
		return sel, nil
	}

	if lastErr != nil {
		return Selection{}, errors.Mark(errors.Wrap(lastErr, "last candidate"), ErrNoSuitableDevice)
	}
	return Selection{}, errors.Wrapf(ErrNoSuitableDevice, "%d candidates", len(candidates))
}

func findPresentFamily(drv device.Driver, pd device.PhysicalDevice, families []device.QueueFamilyProperties, surface device.Surface) (uint32, bool, error) {
	for i := range families {
		supported, err := drv.GetPhysicalDeviceSurfaceSupport(pd, uint32(i), surface)
		if err != nil {
			return 0, false, errors.Wrap(err, "vkGetPhysicalDeviceSurfaceSupportKHR")
		}
		if supported {
			return uint32(i), true, nil
		}
	}
	return 0, false, nil
}

// buildQueuePlan makes one request per family with a nonzero counter
func buildQueuePlan(requested []uint32) QueuePlan {
	var (
		plan     QueuePlan
		maxCount uint32
	)
	for family, count := range requested {
		if count == 0 {
			continue
		}
		plan.Requests = append(plan.Requests, QueueRequest{
			FamilyIndex: uint32(family),
			Count:       count,
		})
		if count > maxCount {
			maxCount = count
		}
	}
	plan.Priorities = make([]float32, maxCount)
	for i := range plan.Priorities {
		plan.Priorities[i] = DefaultQueuePriority
	}
	return plan
}
