package analyzer

import "fmt"

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "dom", "":
		return NewDOMDetector(), nil
	case "visual":
		return NewVisualDetector(), nil
	case "hybrid":
		return &FallbackDetector{Primary: NewDOMDetector(), Secondary: NewVisualDetector()}, nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}
