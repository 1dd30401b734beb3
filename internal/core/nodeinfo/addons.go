package nodeinfo

import (
	"strings"
	"sync"
)

// StaticAddons is an addon registry loaded from configuration
type StaticAddons struct {
	enabled map[string]bool
	mu      sync.RWMutex
}

// NewStaticAddons enables the named addons
func NewStaticAddons(names []string) *StaticAddons {
	a := &StaticAddons{enabled: make(map[string]bool, len(names))}
	for _, n := range names {
		if n = strings.TrimSpace(strings.ToLower(n)); n != "" {
			a.enabled[n] = true
		}
	}
	return a
}

func (a *StaticAddons) IsEnabled(name string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled[name]
}

// Uninstall disables an addon for the lifetime of the process
func (a *StaticAddons) Uninstall(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.enabled, name)
	return nil
}
