// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// PhongVertexShader computes per-vertex light and eye vectors.
//
//go:embed phong.vert
var PhongVertexShader string

// PhongFragmentShader combines ambient, diffuse and specular terms.
//
//go:embed phong.frag
var PhongFragmentShader string

// SkyboxVertexShader emits a fullscreen quad at maximum depth.
//
//go:embed skybox.vert
var SkyboxVertexShader string

// SkyboxFragmentShader samples the cube map along the view direction.
//
//go:embed skybox.frag
var SkyboxFragmentShader string
