package renderer

import (
	"fmt"
	"strings"
)

// Mode selects whether the renderer writes one diagram or one per operation.
type Mode string

const (
	// ModeSingle writes a single diagram to the output file.
	ModeSingle Mode = "single"
	// ModeSplit writes one diagram per operation into the output directory.
	ModeSplit Mode = "split"
)

// Modes lists the supported modes.
var Modes = []Mode{ModeSingle, ModeSplit}

// ParseMode validates s as a Mode, ignoring case.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", &InvalidArgumentError{Name: "mode", Value: s, Allowed: modeNames()}
}

func modeNames() []string {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return names
}

// Format is an output format understood by openapi-to-plantuml.
type Format string

// Formats supported by the renderer.
const (
	FormatPUML            Format = "PUML"
	FormatEPS             Format = "EPS"
	FormatEPSText         Format = "EPS_TEXT"
	FormatATXT            Format = "ATXT"
	FormatUTXT            Format = "UTXT"
	FormatXMIStandard     Format = "XMI_STANDARD"
	FormatXMIStar         Format = "XMI_STAR"
	FormatXMIArgo         Format = "XMI_ARGO"
	FormatVDX             Format = "VDX"
	FormatLatex           Format = "LATEX"
	FormatLatexNoPreamble Format = "LATEX_NO_PREAMBLE"
	FormatBraillePNG      Format = "BRAILLE_PNG"
	FormatDebug           Format = "DEBUG"
	FormatPNG             Format = "PNG"
	FormatRaw             Format = "RAW"
	FormatSVG             Format = "SVG"
)

// Formats lists the supported formats in the renderer's order.
var Formats = []Format{
	FormatPUML, FormatEPS, FormatEPSText, FormatATXT, FormatUTXT,
	FormatXMIStandard, FormatXMIStar, FormatXMIArgo, FormatVDX, FormatLatex,
	FormatLatexNoPreamble, FormatBraillePNG, FormatDebug, FormatPNG, FormatRaw,
	FormatSVG,
}

// ParseFormat validates s as a Format, ignoring case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", &InvalidArgumentError{Name: "diagram format", Value: s, Allowed: FormatNames()}
}

// FormatNames returns the supported format names.
func FormatNames() []string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return names
}

// ModeNames returns the supported mode names.
func ModeNames() []string {
	return modeNames()
}

// Request describes one rendering run.
type Request struct {
	// SpecPath is the JSON or YAML specification to render.
	SpecPath string
	// OutputPath is a file in single mode and a directory in split mode.
	OutputPath string
	Mode       Mode
	Format     Format
	// Version selects the renderer release; empty means the invoker default.
	Version string
}

func (r Request) validate() (Request, error) {
	mode, err := ParseMode(string(r.Mode))
	if err != nil {
		return r, err
	}
	format, err := ParseFormat(string(r.Format))
	if err != nil {
		return r, err
	}
	if r.SpecPath == "" {
		return r, &InvalidArgumentError{Name: "openapi spec", Value: ""}
	}
	if r.OutputPath == "" {
		return r, &InvalidArgumentError{Name: "output path", Value: ""}
	}
	r.Mode, r.Format = mode, format
	return r, nil
}

func (r Request) String() string {
	return fmt.Sprintf("%s -> %s (%s, %s)", r.SpecPath, r.OutputPath, r.Mode, r.Format)
}
