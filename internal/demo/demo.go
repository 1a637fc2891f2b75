// Package demo embeds the scripts shipped with conscreen.
package demo

import (
	_ "embed"

	"github.com/dshills/conscreen/internal/plugin"
)

// RaycastName is the name the raycaster demo runs under.
const RaycastName = "raycast"

//go:embed raycast.lua
var raycast string

// Raycast returns the raycaster demo: a rotating first-person view of a
// small maze with a minimap and a status line, redrawn every frame.
func Raycast() plugin.Script {
	return plugin.Script{Name: RaycastName, Code: raycast}
}

// Source returns the raycaster's Lua source.
func Source() string {
	return raycast
}
