// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/loader"
)

// DefaultDebugFlags are the message kinds a debug callback is registered for
const DefaultDebugFlags = device.DebugReportError | device.DebugReportWarning | device.DebugReportPerformanceWarning

// InstanceOptions are the inputs of instance creation
type InstanceOptions struct {
	AvailableLayers     []device.LayerProperties
	DesiredLayers       []string
	AvailableExtensions []device.ExtensionProperties
	DesiredExtensions   []string

	ApplicationName    string
	ApplicationVersion uint32

	// Debug, when set, is registered as a debug report callback and
	// VK_EXT_debug_report is added to the desired extensions
	Debug      device.DebugFunc
	DebugFlags device.DebugReportFlags
}

// Instance is a created instance along with what was enabled on it
type Instance struct {
	Handle     device.Instance
	Debug      device.DebugReport
	Layers     []string
	Extensions []string
}

// EnumerateAvailableLayers lists the instance layers the driver offers
func EnumerateAvailableLayers(drv device.Driver) ([]device.LayerProperties, error) {
	return enumerate("vkEnumerateInstanceLayerProperties", drv.EnumerateInstanceLayerProperties)
}

// EnumerateAvailableExtensions lists the instance extensions the driver offers
func EnumerateAvailableExtensions(drv device.Driver) ([]device.ExtensionProperties, error) {
	return enumerate("vkEnumerateInstanceExtensionProperties", drv.EnumerateInstanceExtensionProperties)
}

// CreateInstance validates the desired layers and extensions against the
// available ones and creates an instance. Nothing is asked of the driver
// unless every desired item is available.
func CreateInstance(drv device.Driver, opts InstanceOptions) (Instance, error) {
	extensions := opts.DesiredExtensions
	if opts.Debug != nil {
		extensions = appendUnique(extensions, loader.ExtensionDebugReport)
	}

	if missing := missingLayers(opts.AvailableLayers, opts.DesiredLayers); len(missing) > 0 {
		log.WithFields(log.Fields{
			"func":    "core.CreateInstance",
			"missing": missing,
		}).Error("desired layers are not available")
		return Instance{}, errors.Wrapf(ErrNotAvailable, "layers %v", missing)
	}
	if missing := missingExtensions(opts.AvailableExtensions, extensions); len(missing) > 0 {
		log.WithFields(log.Fields{
			"func":    "core.CreateInstance",
			"missing": missing,
		}).Error("desired extensions are not available")
		return Instance{}, errors.Wrapf(ErrNotAvailable, "instance extensions %v", missing)
	}

	createInfo := device.InstanceCreateInfo{
		Application: device.ApplicationInfo{
			ApplicationName:    opts.ApplicationName,
			ApplicationVersion: opts.ApplicationVersion,
			EngineName:         EngineName,
			EngineVersion:      EngineVersion,
			APIVersion:         APIVersion,
		},
		Layers:     opts.DesiredLayers,
		Extensions: extensions,
	}

	var handle device.Instance
	if err := drv.CreateInstance(&createInfo, &handle); err != nil {
		log.WithFields(log.Fields{
			"func":       "core.CreateInstance",
			"layers":     opts.DesiredLayers,
			"extensions": extensions,
		}).Error(err)
		return Instance{}, errors.Wrap(err, "vkCreateInstance")
	}
	if handle == 0 {
		log.WithField("func", "core.CreateInstance").Error("null instance handle")
		return Instance{}, errors.Wrap(ErrNullHandle, "vkCreateInstance")
	}

	if err := drv.LoadInstanceFunctions(handle, extensions); err != nil {
		log.WithFields(log.Fields{
			"func":       "core.CreateInstance",
			"extensions": extensions,
		}).Error(err)
		if derr := drv.DestroyInstance(handle); derr != nil {
			log.WithField("func", "core.CreateInstance").Error(errors.Wrap(derr, "vkDestroyInstance"))
		}
		return Instance{}, errors.Wrap(err, "instance functions")
	}

	instance := Instance{
		Handle:     handle,
		Layers:     opts.DesiredLayers,
		Extensions: extensions,
	}

	if opts.Debug != nil {
		flags := opts.DebugFlags
		if flags == 0 {
			flags = DefaultDebugFlags
		}
		if err := drv.CreateDebugReport(handle, flags, opts.Debug, &instance.Debug); err != nil {
			log.WithField("func", "core.CreateInstance").Error(err)
			if derr := drv.DestroyInstance(handle); derr != nil {
				log.WithField("func", "core.CreateInstance").Error(errors.Wrap(derr, "vkDestroyInstance"))
			}
			return Instance{}, errors.Wrap(err, "vkCreateDebugReportCallbackEXT")
		}
	}

	log.WithFields(log.Fields{
		"layers":     len(instance.Layers),
		"extensions": len(instance.Extensions),
		"debug":      instance.Debug != 0,
	}).Info("instance created")
	return instance, nil
}

// DestroyInstance destroys the instance and its debug callback and clears the
// handles. A null instance is only reported.
func DestroyInstance(drv device.Driver, instance *Instance) {
	if instance == nil || instance.Handle == 0 {
		log.WithField("func", "core.DestroyInstance").Warn("instance is null")
		return
	}

	DestroyDebugReport(drv, instance.Handle, &instance.Debug)
	if err := drv.DestroyInstance(instance.Handle); err != nil {
		log.WithField("func", "core.DestroyInstance").Error(err)
	}
	*instance = Instance{}
}

// DestroyDebugReport unregisters a debug callback and clears its handle. A
// null callback is a no-op, it is optional on every instance.
func DestroyDebugReport(drv device.Driver, instance device.Instance, report *device.DebugReport) {
	if report == nil || *report == 0 {
		return
	}
	if err := drv.DestroyDebugReport(instance, *report); err != nil {
		log.WithField("func", "core.DestroyDebugReport").Error(err)
	}
	*report = 0
}

// DebugLogger is a debug callback that forwards driver messages to the logger
func DebugLogger(flags device.DebugReportFlags, layerPrefix, message string) {
	entry := log.WithField("layer", layerPrefix)
	switch {
	case flags&device.DebugReportError != 0:
		entry.Error(message)
	case flags&(device.DebugReportWarning|device.DebugReportPerformanceWarning) != 0:
		entry.Warn(message)
	case flags&device.DebugReportDebug != 0:
		entry.Debug(message)
	default:
		entry.Info(message)
	}
}
