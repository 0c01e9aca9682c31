// Package shaders provides the embedded default GLSL sources.
package shaders

import _ "embed"

// ModelVertexShader is the default vertex shader for model rendering.
//
//go:embed model.vert
var ModelVertexShader string

// ModelFragmentShader is the default fragment shader for model rendering.
//
//go:embed model.frag
var ModelFragmentShader string
