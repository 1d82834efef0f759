// Package shell runs external command lines through the platform shell,
// buffering both output streams and turning non-zero exits into typed
// errors the pipeline can inspect.
package shell
