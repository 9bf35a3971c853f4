// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/vkboot/device"
)

// Viewport maps normalized device coordinates onto the swapchain images
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// Rect2D is a scissor rectangle in pixels
type Rect2D struct {
	X, Y   int32
	Extent device.Extent2D
}

// View is the full screen viewport, scissor and projection of a swapchain
type View struct {
	Viewport   Viewport
	Scissor    Rect2D
	Projection mgl32.Mat4
}

// Projection parameters
const (
	FieldOfView float32 = 45
	NearPlane   float32 = 0.1
	FarPlane    float32 = 100
)

// NewView covers the whole extent. A zero sized extent gets an identity projection.
func NewView(extent device.Extent2D) View {
	v := View{
		Viewport: Viewport{
			Width:    float32(extent.Width),
			Height:   float32(extent.Height),
			MaxDepth: 1,
		},
		Scissor:    Rect2D{Extent: extent},
		Projection: mgl32.Ident4(),
	}
	if extent.Width == 0 || extent.Height == 0 {
		return v
	}

	aspect := float32(extent.Width) / float32(extent.Height)
	v.Projection = mgl32.Perspective(mgl32.DegToRad(FieldOfView), aspect, NearPlane, FarPlane)
	// clip space y points down
	v.Projection[5] *= -1
	return v
}
