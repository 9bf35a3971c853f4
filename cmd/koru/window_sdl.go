// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build !glfw

package main

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/vkboot/core"
)

type sdlWindow struct {
	window *sdl.Window
}

func newWindow(cfg core.Configuration) (window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errors.Wrap(err, "sdl.Init()")
	}
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.VulkanLoadLibrary()")
	}

	w, err := sdl.CreateWindow(cfg.Instance.ApplicationName,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Swapchain.Width),
		int32(cfg.Swapchain.Height),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.CreateWindow()")
	}
	return &sdlWindow{window: w}, nil
}

func (s *sdlWindow) Handle() unsafe.Pointer {
	return unsafe.Pointer(s.window)
}

func (s *sdlWindow) Poll() (quit, resized bool, width, height uint32) {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch et := event.(type) {
		case *sdl.KeyboardEvent:
			if et.Keysym.Sym == sdl.K_ESCAPE {
				quit = true
			}
		case *sdl.QuitEvent:
			quit = true
		case *sdl.WindowEvent:
			if et.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				resized = true
				width, height = uint32(et.Data1), uint32(et.Data2)
			}
		}
	}
	return
}

func (s *sdlWindow) Destroy() {
	_ = s.window.Destroy()
	sdl.VulkanUnloadLibrary()
	sdl.Quit()
}
