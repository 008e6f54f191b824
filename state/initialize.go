package state

import (
	"time"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
		PlaceholderImage: []byte(`<svg viewBox="0 0 200 120" xmlns="http://www.w3.org/2000/svg">
  <rect x="1" y="1" width="198" height="118" fill="#f2f2f2" stroke="#999" stroke-width="1"/>
  <path d="M20 100 L70 45 L105 80 L130 60 L180 100 Z" fill="#ccc" stroke="#999" stroke-width="1"/>
  <circle cx="150" cy="32" r="12" fill="#ddd" stroke="#999" stroke-width="1"/>
</svg>`),
	}
}
