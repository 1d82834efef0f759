// Package bundle turns the raw toolchain output into the final shippable
// artifact: a renamed, compressed archive on Windows, or a staged
// application bundle fed to the disk-image builder on macOS.
package bundle
