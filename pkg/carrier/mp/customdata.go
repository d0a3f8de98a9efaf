package mp

import (
	"encoding/json"
	"fmt"

	"github.com/warelink/mpbridge/pkg/carrier"
)

// customDataFor parses the carrier's custom-data configuration and returns
// the overlay for one action tag. The configuration is a JSON object keyed
// by action ("rate", "shipment", "return"); the legacy literal-structure
// format is not evaluated, only JSON is accepted.
func customDataFor(raw, action string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}

	var perAction map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &perAction); err != nil {
		return nil, carrier.NewConfigError(carrierName, "invalid syntax for MP custom data").WithCause(err)
	}

	section, ok := perAction[action]
	if !ok {
		return nil, nil
	}

	var overlay map[string]any
	if err := json.Unmarshal(section, &overlay); err != nil {
		return nil, carrier.NewConfigError(carrierName,
			fmt.Sprintf("MP custom data for %q must be an object", action)).WithCause(err)
	}
	return overlay, nil
}

// mergeOverlay recursively merges an overlay into a built request document.
// When the target value is a list, the overlay is applied to every element.
// When both sides are objects, they merge key by key. Anything else is
// replaced outright by the overlay value.
func mergeOverlay(target map[string]any, overlay map[string]any) {
	for key, newValue := range overlay {
		switch current := target[key].(type) {
		case []any:
			newMap, ok := newValue.(map[string]any)
			if !ok {
				target[key] = newValue
				continue
			}
			for _, item := range current {
				if itemMap, ok := item.(map[string]any); ok {
					mergeOverlay(itemMap, newMap)
				}
			}
		case map[string]any:
			if newMap, ok := newValue.(map[string]any); ok {
				mergeOverlay(current, newMap)
			} else {
				target[key] = newValue
			}
		default:
			target[key] = newValue
		}
	}
}

// applyCustomData merges the configured per-action overlay into a built
// document. Malformed overlay syntax surfaces here, before any network call.
func applyCustomData(cfg carrier.Config, action string, doc Document) error {
	overlay, err := customDataFor(cfg.CustomData, action)
	if err != nil {
		return err
	}
	if overlay != nil {
		mergeOverlay(doc, overlay)
	}
	return nil
}
