package define

const (
	// Package is the name of this package, used in help output and in the
	// announcement banner.
	Package = "faultline"
	// Version for the Package.
	Version = "0.3.0"
)
