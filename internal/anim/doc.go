// Package anim provides easing curves, property tweens and a sequential
// scene clock.
//
//	scene := anim.NewScene(30, hook)
//	err := scene.Play(ctx, 0.45, anim.EaseOutCubic, anim.Float(&stage.Thickness, 2.2))
//
// Play and Wait block until their last frame has been handed to the hook,
// so consecutive calls never overlap.
package anim
