package config

import (
	"strings"
	"time"
)

// Eviction names a cache eviction policy.
type Eviction string

const (
	EvictionLRU  Eviction = "LRU"
	EvictionFIFO Eviction = "FIFO"
	EvictionSoft Eviction = "SOFT"
	EvictionWeak Eviction = "WEAK"
)

// ParseEviction resolves an eviction attribute. Empty means LRU.
func ParseEviction(name string) (Eviction, error) {
	if strings.TrimSpace(name) == "" {
		return EvictionLRU, nil
	}

	switch e := Eviction(strings.ToUpper(strings.TrimSpace(name))); e {
	case EvictionLRU, EvictionFIFO, EvictionSoft, EvictionWeak:
		return e, nil
	default:
		return "", wrapf(ErrUnresolvedType, "cache eviction %q", name)
	}
}

// DefaultCacheType is the cache implementation used when <cache> names none.
const DefaultCacheType = "PERPETUAL"

// CacheDef is the declaration of a namespace's second-level cache. It only
// describes the cache; nothing here stores data.
type CacheDef struct {
	Namespace     string            `yaml:"namespace" json:"namespace"`
	Resource      string            `yaml:"resource" json:"resource"`
	Type          string            `yaml:"type" json:"type"`
	Eviction      Eviction          `yaml:"eviction" json:"eviction"`
	FlushInterval time.Duration     `yaml:"flushInterval,omitempty" json:"flushInterval,omitempty"`
	Size          int               `yaml:"size,omitempty" json:"size,omitempty"`
	ReadOnly      bool              `yaml:"readOnly" json:"readOnly"`
	Blocking      bool              `yaml:"blocking" json:"blocking"`
	Properties    map[string]string `yaml:"properties,omitempty" json:"properties,omitempty"`
}
