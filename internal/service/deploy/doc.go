// Package deploy runs the default pipeline mode: build the standalone
// application with the native toolchain, then package it into the
// platform release artifact.
package deploy
