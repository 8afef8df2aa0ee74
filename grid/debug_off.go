//go:build !dgdebug

package grid

const debugChecks = false
