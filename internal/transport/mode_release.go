//go:build release

package transport

const defaultMode = Production
