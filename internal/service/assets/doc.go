// Package assets fetches the remotely hosted data files the packaged
// application needs at runtime. Each download is independent: failures
// are logged per task and only the aggregate result fails the mode.
package assets
