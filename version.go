package canopy

// Version is the library version. Overridden at release time via
// -ldflags "-X github.com/aretw0/canopy.Version=...".
var Version = "dev"
