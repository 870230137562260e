package assets

import (
	"fmt"
	"strings"
)

// forbiddenNameChars would let a name leave its asset directory or pick a
// different extension than the loader appends.
const forbiddenNameChars = "/\\."

// ValidateAssetName rejects names that cannot be used as a bare file stem
// under styles/, scripts/ or templates/. Built-in names such as CodelabName
// and ViewsTemplate always pass.
func ValidateAssetName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	case strings.ContainsAny(name, forbiddenNameChars):
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
