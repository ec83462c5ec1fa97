// ABOUTME: Product identification strings
// ABOUTME: Shared by the voice client, echo service and logs
package version

// Version is overridden at build time with -ldflags "-X ...version.Version=..."
var Version = "0.1.0"

const (
	Product      = "Vaani Voice Client"
	Manufacturer = "GranthAI"
)

// UserAgent returns the product string sent with WebSocket handshakes
func UserAgent() string {
	return "vaani-go/" + Version
}
