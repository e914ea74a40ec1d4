// ABOUTME: Product and version constants
// ABOUTME: Reported in the control handshake and mDNS advertisement
package version

const (
	Product      = "LoopSync"
	Manufacturer = "LoopSync Audio"
	Version      = "0.1.0"
)
