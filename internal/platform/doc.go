// Package platform derives everything release-naming from the host
// environment: the platform family, the canonical artifact name, the
// toolchain build command and the renamed-build directory.
//
// Resolution is pure: given the same profile and settings it always
// produces the same names, which is what makes reruns idempotent.
package platform
