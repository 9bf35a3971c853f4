// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"runtime"
	"unsafe"

	"github.com/gobuffalo/envy"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/core/renderer"
	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/device/surface"
	"github.com/devblok/vkboot/loader"
)

func init() {
	runtime.LockOSThread()
}

// window is the platform window the renderer presents to
type window interface {
	Handle() unsafe.Pointer
	// Poll drains pending events. Resized reports the last new size seen.
	Poll() (quit, resized bool, width, height uint32)
	Destroy()
}

func main() {
	if err := core.LoadEnvFile(); err != nil {
		log.Debug(err)
	}

	cfg, err := core.LoadConfiguration(envy.Get("KORU_CONFIG", ""))
	if err != nil {
		log.Fatal(err)
	}
	if err := core.ConfigureLogging(cfg.Log); err != nil {
		log.Fatal(err)
	}
	rendererCfg, err := renderer.NewConfiguration(cfg)
	if err != nil {
		log.Fatal(err)
	}

	win, err := newWindow(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer win.Destroy()

	platform := surface.New()
	l := loader.FromEntryPoint(platform.ProcAddr())
	if l.Root() == 0 {
		if l, err = loader.Open(); err != nil {
			log.Fatal(err)
		}
	}
	defer l.Release()

	drv, err := device.NewVulkan(l, platform)
	if err != nil {
		log.Fatal(err)
	}

	vkRenderer := renderer.NewVulkanRenderer(drv, rendererCfg)
	if err := vkRenderer.Initialise(nil, win.Handle(), platform.RequiredExtensions(win.Handle())); err != nil {
		log.Fatal(err)
	}
	defer vkRenderer.Destroy()

	for _, lap := range vkRenderer.Timing() {
		log.WithField("duration", lap.Duration).Info(lap.Name)
	}

	time := core.NewTime(cfg.Time)
	defer time.Stop()

EventLoop:
	for {
		select {
		case <-time.EventTicker().C:
			quit, resized, width, height := win.Poll()
			if quit {
				log.Info("Event loop exited")
				break EventLoop
			}
			if resized {
				if err := vkRenderer.Resize(width, height); err != nil {
					log.Error(err)
					break EventLoop
				}
				view := vkRenderer.View()
				log.WithFields(log.Fields{
					"width":  view.Viewport.Width,
					"height": view.Viewport.Height,
				}).Debug("swapchain resized")
			}
		case <-time.FpsTicker().C:
		}
	}
}
