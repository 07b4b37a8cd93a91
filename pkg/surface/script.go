package surface

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// Receiver is the UI-side function every delivery invokes.
const Receiver = "LiteShell.__emit__"

// RuntimeScript defines the LiteShell object in the UI: the receiver plus
// on/off subscriptions and a call helper that POSTs to the bridge.
//
//go:embed runtime.js
var RuntimeScript string

// Script builds the script that hands name and payload to Receiver.
func Script(name string, payload any) (string, error) {
	nameJSON, err := json.Marshal(name)
	if err != nil {
		return "", fmt.Errorf("failed to encode event name: %w", err)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s payload: %w", name, err)
	}
	return fmt.Sprintf("%s(%s, %s)", Receiver, nameJSON, data), nil
}

// Emit builds the delivery script and runs it on an already-acquired surface.
// Use it from code that is handed the surface inside Handle.With.
func Emit(s Surface, name string, payload any) error {
	script, err := Script(name, payload)
	if err != nil {
		return err
	}
	return s.EvaluateScript(script)
}
