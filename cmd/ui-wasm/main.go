//go:build js && wasm

package main

import "github.com/Its-donkey/climbcam-live/internal/ui/wasm"

func main() {
	wasm.RunApp()
}
