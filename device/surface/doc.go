// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package surface provides the presentation surface factory of the windowing
// library the binary is built with: SDL2 by default, GLFW with the glfw build tag.
package surface
