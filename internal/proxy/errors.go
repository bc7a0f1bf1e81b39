package proxy

import "errors"

// ErrProxyReload is the sentinel for the ProxyReload error kind: the
// config test or reload itself failed (spec.md §7).
var ErrProxyReload = errors.New("proxy: reload failed")
