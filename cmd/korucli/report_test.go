// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/device/devicetest"
)

func TestBuildReport(t *testing.T) {
	f := devicetest.Default()
	broken := devicetest.DiscreteGPU("broken")
	broken.QueueFamilies = nil
	f.GPUs = append([]devicetest.GPU{broken}, f.GPUs...)

	report, err := buildReport(f, core.DefaultConfiguration())
	require.NoError(t, err)

	assert.NotEmpty(t, report.Session)
	assert.Equal(t, []string{"VK_LAYER_KHRONOS_validation"}, report.Layers)
	require.Len(t, report.Devices, 2)
	assert.NotEmpty(t, report.Devices[0].Error)

	gpu := report.Devices[1]
	assert.Equal(t, "Fake GPU", gpu.Name)
	assert.Equal(t, device.PhysicalDeviceTypeDiscreteGPU.String(), gpu.Type)
	assert.Equal(t, "1.1.0", gpu.APIVersion)
	assert.Equal(t, []string{"compute", "graphics", "transfer"}, gpu.QueueFamilies[0].Capabilities)
	assert.Contains(t, gpu.Features, "samplerAnisotropy")

	require.NotNil(t, report.Selected)
	assert.Equal(t, 1, *report.Selected)
	assert.Equal(t, []string{"instance"}, f.Destroyed)
}

func TestBuildReportNoSuitableDevice(t *testing.T) {
	f := devicetest.Default()
	cfg := core.DefaultConfiguration()
	cfg.Device.Extensions = []string{"VK_KHR_ray_tracing_pipeline"}

	report, err := buildReport(f, cfg)
	require.NoError(t, err)
	assert.Nil(t, report.Selected)
	assert.Contains(t, report.Reason, "no suitable physical device")
}
