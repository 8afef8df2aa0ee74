//go:build dgdebug

package grid

// debugChecks enables handle misuse assertions; build with -tags dgdebug
const debugChecks = true
