// ABOUTME: Version information for resonate-tone
// ABOUTME: Product identity reported at startup and in the TUI
package version

const (
	Version      = "0.2.0"
	Product      = "resonate-tone"
	Manufacturer = "Resonate"
)
