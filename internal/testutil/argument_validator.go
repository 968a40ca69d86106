package testutil

import (
	"fmt"
	"path/filepath"
	"regexp"
)

// rendererFormat matches the upper-case format names the renderer accepts.
var rendererFormat = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// ValidateRendererArgs checks the argument layout of a renderer invocation:
// -jar <jar> <single|split> <spec> <FORMAT> <output>, with absolute paths.
func ValidateRendererArgs(args []string) error {
	if len(args) != 6 {
		return fmt.Errorf("expected 6 arguments, got %d: %q", len(args), args)
	}
	if args[0] != "-jar" {
		return fmt.Errorf("first argument must be -jar, got %q", args[0])
	}
	if filepath.Ext(args[1]) != ".jar" {
		return fmt.Errorf("renderer %q is not a jar", args[1])
	}
	if mode := args[2]; mode != "single" && mode != "split" {
		return fmt.Errorf("unknown mode %q", mode)
	}
	if !rendererFormat.MatchString(args[4]) {
		return fmt.Errorf("format %q does not match pattern %s", args[4], rendererFormat)
	}
	for _, i := range []int{1, 3, 5} {
		if !filepath.IsAbs(args[i]) {
			return fmt.Errorf("argument %d must be an absolute path, got %q", i, args[i])
		}
	}
	return nil
}
