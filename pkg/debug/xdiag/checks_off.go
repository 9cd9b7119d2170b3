//go:build xsync_release

package xdiag

const checksEnabled = false
