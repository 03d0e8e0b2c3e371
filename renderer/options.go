package renderer

import "github.com/VincentPHAM98/SI3D/gpu/culling"

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Culling pipeline settings for the interactive renderer.
	Culling culling.Options

	// Draw bucket boxes and the culling frustum on top of the scene.
	ShowWireframes bool
}
