package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/1broseidon/areascan/internal/config"
	"github.com/1broseidon/areascan/internal/platform"
)

type regionJSON struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type scanJSON struct {
	Region regionJSON `json:"region"`
	Codes  []string   `json:"codes"`
}

type outputJSON struct {
	Name   string     `json:"name"`
	Region regionJSON `json:"region"`
}

func toRegionJSON(r platform.Rect) regionJSON {
	return regionJSON{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// resolveFormat turns "auto" into text on a terminal and JSON otherwise.
func resolveFormat(format string, f *os.File) string {
	if format != config.FormatAuto {
		return format
	}
	if term.IsTerminal(int(f.Fd())) {
		return config.FormatText
	}
	return config.FormatJSON
}

// formatRect renders r as "X,Y WxH".
func formatRect(r platform.Rect) string {
	return fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.Width, r.Height)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeRect(w io.Writer, format string, r platform.Rect) error {
	if format == config.FormatJSON {
		return writeJSON(w, toRegionJSON(r))
	}
	_, err := fmt.Fprintln(w, formatRect(r))
	return err
}

func writeScan(w io.Writer, format string, r platform.Rect, codes []string) error {
	if format == config.FormatJSON {
		if codes == nil {
			codes = []string{}
		}
		return writeJSON(w, scanJSON{Region: toRegionJSON(r), Codes: codes})
	}
	for _, code := range codes {
		if _, err := fmt.Fprintf(w, "decoded: %s\n", code); err != nil {
			return err
		}
	}
	return nil
}

func writeOutputs(w io.Writer, format string, outputs []platform.Output) error {
	if format == config.FormatJSON {
		list := make([]outputJSON, 0, len(outputs))
		for _, o := range outputs {
			list = append(list, outputJSON{Name: o.Name, Region: toRegionJSON(o.Bounds)})
		}
		return writeJSON(w, list)
	}
	for _, o := range outputs {
		b := o.Bounds
		if _, err := fmt.Fprintf(w, "%-12s %dx%d+%d+%d\n", o.Name, b.Width, b.Height, b.X, b.Y); err != nil {
			return err
		}
	}
	return nil
}
