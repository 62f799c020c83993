// Package statusmutate implements the one in-flight mutation the proxy
// performs: appending a "proxied by" marker to the server's status
// response description before forwarding it to the client.
package statusmutate

import (
	"encoding/json"
	"fmt"
)

const (
	// absentText is used when the description is absent/null: it becomes
	// the entire description, so it carries no leading newline.
	absentText = "proxied by minecraft-go-proxy 🦀"
	// extraText is appended as an extra marker alongside existing
	// description content, so it carries a leading newline to separate it
	// from what's already there.
	extraText   = "\nproxied by minecraft-go-proxy 🦀"
	markerColor = "#d34516"
)

func marker() map[string]any {
	return map[string]any{
		"text":  extraText,
		"color": markerColor,
	}
}

// InjectDescription applies the status-description injection rules to a raw
// status_response JSON payload and returns the re-serialized result.
//
// D = root["description"]:
//  1. D absent/null          -> D = {text: "proxied by ...", color: "#d34516"}
//  2. D is a string s        -> D = {text: s, extra: [marker]}
//  3. D is an object:
//     - extra absent/null    -> D.extra = [marker]
//     - extra is an array    -> append marker to D.extra
//     - otherwise            -> unchanged
//  4. any other shape        -> unchanged
func InjectDescription(payload []byte) ([]byte, error) {
	var root map[string]any
	if err := json.Unmarshal(payload, &root); err != nil {
		return nil, fmt.Errorf("statusmutate: decode status response: %w", err)
	}

	switch d := root["description"].(type) {
	case nil:
		root["description"] = map[string]any{
			"text":  absentText,
			"color": markerColor,
		}

	case string:
		root["description"] = map[string]any{
			"text":  d,
			"extra": []any{marker()},
		}

	case map[string]any:
		extra, hasExtra := d["extra"]
		if !hasExtra || extra == nil {
			d["extra"] = []any{marker()}
		} else if arr, ok := extra.([]any); ok {
			d["extra"] = append(arr, marker())
		}
		// Any other "extra" shape is left unchanged.

	default:
		// Any other description shape (number, bool, array, ...) is left unchanged.
	}

	out, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("statusmutate: encode status response: %w", err)
	}
	return out, nil
}
