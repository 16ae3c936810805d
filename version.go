package vfxbridge

// Version is the bridge release, overridden at build time with
// -ldflags "-X github.com/aretw0/vfxbridge.Version=...".
var Version = "0.1.0-dev"
