// Package native implements the meshcore device contracts on top of
// gogpu/wgpu/hal, the pure Go WebGPU hardware abstraction layer.
//
// [HALAdapter] maps meshcore resource IDs to HAL objects. A frame is
// recorded through a [Recorder], uploads go through a [StagingBelt], and
// antialiased frames use an [MSAATarget] created by the adapter:
//
//	adapter := native.NewHALAdapter(device, queue, nil)
//	belt := native.NewStagingBelt(adapter, native.DefaultChunkSize)
//	target := adapter.RegisterTextureView(surfaceView)
//
//	rec, err := adapter.BeginFrame("frame")
//	err = renderer.Render(&meshcore.Frame{Recorder: rec, Belt: belt, Target: target, ...})
//	belt.Finish()
//	err = rec.Submit()
//	belt.Recall()
//	adapter.Recall()
//
// Submit waits for the GPU, so recalling right after it is safe.
//
// Shader modules compiled from identical SPIR-V are shared by every renderer
// and MSAA target on one adapter; [HALAdapter.ShaderCacheStats] reports the
// reuse. The backend package opens suitable HAL devices by name.
package native
