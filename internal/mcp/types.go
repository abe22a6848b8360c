package mcp

// Region is a rectangle in global desktop coordinates.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SelectRegionInput is the input for the select_region tool.
type SelectRegionInput struct{}

// SelectRegionOutput is the output for the select_region tool.
type SelectRegionOutput struct {
	Selected  bool    `json:"selected"`
	Cancelled bool    `json:"cancelled,omitempty"`
	Region    *Region `json:"region,omitempty"`
}

// ScanRegionInput is the input for the scan_region tool.
type ScanRegionInput struct {
	Region *Region `json:"region,omitempty" jsonschema:"Region to scan in global desktop coordinates. When omitted the user selects one interactively."`
}

// ScanRegionOutput is the output for the scan_region tool.
type ScanRegionOutput struct {
	Selected  bool     `json:"selected"`
	Cancelled bool     `json:"cancelled,omitempty"`
	Region    *Region  `json:"region,omitempty"`
	Codes     []string `json:"codes"`
}

// ListOutputsInput is the input for the list_outputs tool.
type ListOutputsInput struct{}

// OutputInfo describes one connected display.
type OutputInfo struct {
	Name   string `json:"name"`
	Region Region `json:"region"`
}

// ListOutputsOutput is the output for the list_outputs tool.
type ListOutputsOutput struct {
	Outputs []OutputInfo `json:"outputs"`
}
