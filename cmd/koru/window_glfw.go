// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build glfw

package main

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/devblok/vkboot/core"
)

type glfwWindow struct {
	window  *glfw.Window
	resized bool
	width   uint32
	height  uint32
}

func newWindow(cfg core.Configuration) (window, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "glfw.Init()")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.New("glfw: vulkan is not supported")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	w, err := glfw.CreateWindow(int(cfg.Swapchain.Width), int(cfg.Swapchain.Height),
		cfg.Instance.ApplicationName, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "glfw.CreateWindow()")
	}

	g := &glfwWindow{window: w}
	w.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		g.resized = true
		g.width, g.height = uint32(width), uint32(height)
	})
	w.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})
	return g, nil
}

func (g *glfwWindow) Handle() unsafe.Pointer {
	return unsafe.Pointer(g.window)
}

func (g *glfwWindow) Poll() (quit, resized bool, width, height uint32) {
	glfw.PollEvents()
	resized, width, height = g.resized, g.width, g.height
	g.resized = false
	return g.window.ShouldClose(), resized, width, height
}

func (g *glfwWindow) Destroy() {
	g.window.Destroy()
	glfw.Terminate()
}
