// Package state elides redundant fixed-function pipeline changes.
//
// Blend tracks the active polygon flags and emits only the blend, color
// mask, depth write and alpha test groups that differ from the last
// request. Scene tracks the viewport and projection of the active scene
// node and recomputes them only when their inputs change.
package state
