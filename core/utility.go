// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/devblok/vkboot/device"
)

// missingLayers returns the desired layers absent from the available set.
// Names are compared exactly.
func missingLayers(available []device.LayerProperties, desired []string) []string {
	var missing []string
	for _, name := range desired {
		found := false
		for _, layer := range available {
			if layer.Name == name {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, name)
		}
	}
	return missing
}

// missingExtensions returns the desired extensions absent from the available set.
// Names are compared exactly.
func missingExtensions(available []device.ExtensionProperties, desired []string) []string {
	var missing []string
	for _, name := range desired {
		found := false
		for _, ext := range available {
			if ext.Name == name {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, name)
		}
	}
	return missing
}

func appendUnique(list []string, names ...string) []string {
	out := append([]string(nil), list...)
	for _, name := range names {
		found := false
		for _, n := range out {
			if n == name {
				found = true
				break
			}
		}
		if !found {
			out = append(out, name)
		}
	}
	return out
}

var queueFlagNames = map[string]uint32{
	"graphics":       uint32(device.QueueGraphics),
	"compute":        uint32(device.QueueCompute),
	"transfer":       uint32(device.QueueTransfer),
	"sparse_binding": uint32(device.QueueSparseBinding),
	"protected":      uint32(device.QueueProtected),
}

var imageUsageNames = map[string]uint32{
	"transfer_src":             uint32(device.ImageUsageTransferSrc),
	"transfer_dst":             uint32(device.ImageUsageTransferDst),
	"sampled":                  uint32(device.ImageUsageSampled),
	"storage":                  uint32(device.ImageUsageStorage),
	"color_attachment":         uint32(device.ImageUsageColorAttachment),
	"depth_stencil_attachment": uint32(device.ImageUsageDepthStencilAttachment),
	"transient_attachment":     uint32(device.ImageUsageTransientAttachment),
	"input_attachment":         uint32(device.ImageUsageInputAttachment),
}

var surfaceTransformNames = map[string]uint32{
	"identity":                     uint32(device.SurfaceTransformIdentity),
	"rotate_90":                    uint32(device.SurfaceTransformRotate90),
	"rotate_180":                   uint32(device.SurfaceTransformRotate180),
	"rotate_270":                   uint32(device.SurfaceTransformRotate270),
	"horizontal_mirror":            uint32(device.SurfaceTransformHorizontalMirror),
	"horizontal_mirror_rotate_90":  uint32(device.SurfaceTransformHorizontalMirrorRotate90),
	"horizontal_mirror_rotate_180": uint32(device.SurfaceTransformHorizontalMirrorRotate180),
	"horizontal_mirror_rotate_270": uint32(device.SurfaceTransformHorizontalMirrorRotate270),
	"inherit":                      uint32(device.SurfaceTransformInherit),
}

var presentModeNames = map[string]device.PresentMode{
	"immediate":    device.PresentModeImmediate,
	"mailbox":      device.PresentModeMailbox,
	"fifo":         device.PresentModeFifo,
	"fifo_relaxed": device.PresentModeFifoRelaxed,
}

// parseFlags combines names separated by '|' into a bit mask
func parseFlags(kind, s string, names map[string]uint32) (uint32, error) {
	var mask uint32
	for _, part := range strings.Split(s, "|") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		bit, ok := names[part]
		if !ok {
			return 0, errors.Newf("unknown %s %q, expected one of %s", kind, part, strings.Join(flagNames(names), ", "))
		}
		mask |= bit
	}
	if mask == 0 {
		return 0, errors.Newf("empty %s", kind)
	}
	return mask, nil
}

func flagNames(names map[string]uint32) []string {
	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ParseQueueFlags parses a queue capability mask such as "graphics|compute"
func ParseQueueFlags(s string) (device.QueueFlags, error) {
	mask, err := parseFlags("queue capability", s, queueFlagNames)
	return device.QueueFlags(mask), err
}

// QueueFlagNames lists the configuration names of the capabilities in mask
func QueueFlagNames(mask device.QueueFlags) []string {
	var names []string
	for _, name := range flagNames(queueFlagNames) {
		if uint32(mask)&queueFlagNames[name] != 0 {
			names = append(names, name)
		}
	}
	return names
}

// ParseImageUsage parses an image usage mask such as "color_attachment|transfer_dst"
func ParseImageUsage(s string) (device.ImageUsageFlags, error) {
	mask, err := parseFlags("image usage", s, imageUsageNames)
	return device.ImageUsageFlags(mask), err
}

// ParseSurfaceTransform parses a surface transform mask such as "identity"
func ParseSurfaceTransform(s string) (device.SurfaceTransformFlags, error) {
	mask, err := parseFlags("surface transform", s, surfaceTransformNames)
	return device.SurfaceTransformFlags(mask), err
}

// ParsePresentMode parses a present mode name such as "fifo"
func ParsePresentMode(s string) (device.PresentMode, error) {
	mode, ok := presentModeNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, errors.Newf("unknown present mode %q", s)
	}
	return mode, nil
}

// PresentModeName returns the configuration name of a present mode
func PresentModeName(mode device.PresentMode) string {
	for name, m := range presentModeNames {
		if m == mode {
			return name
		}
	}
	return "unknown"
}

// ParseVersion parses "major.minor.patch" into a packed version, missing parts are zero
func ParseVersion(s string) (uint32, error) {
	var parts [3]uint32
	fields := strings.Split(strings.TrimSpace(s), ".")
	if len(fields) > 3 || fields[0] == "" {
		return 0, errors.Newf("malformed version %q", s)
	}
	for i, field := range fields {
		n, err := strconv.ParseUint(field, 10, 32)
		if err != nil {
			return 0, errors.Wrapf(err, "malformed version %q", s)
		}
		parts[i] = uint32(n)
	}
	return device.MakeVersion(parts[0], parts[1], parts[2]), nil
}
