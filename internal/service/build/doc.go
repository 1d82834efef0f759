// Package build invokes the native compiler toolchain that turns the
// application sources into a standalone build inside the deployment
// directory.
package build
