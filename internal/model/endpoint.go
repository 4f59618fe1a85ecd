package model

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ResourceEndpoint maps a public catalog resource to its marketplace
// collection endpoint.
type ResourceEndpoint struct {
	gorm.Model
	Slug           string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_resource_endpoints_slug" json:"slug"`
	Name           string         `gorm:"type:varchar(255);not null" json:"name"`
	UpstreamPath   string         `gorm:"type:varchar(500);not null" json:"upstream_path"`
	DefaultSize    int            `gorm:"default:12;check:default_size >= 1 AND default_size <= 100" json:"default_size"`
	AllowedFilters datatypes.JSON `gorm:"type:jsonb;default:'[]'::jsonb" json:"allowed_filters"`
	CacheEnabled   bool           `gorm:"default:true" json:"cache_enabled"`
	CacheTTL       int            `gorm:"default:60" json:"cache_ttl"` // seconds, 0 = config default
	IsActive       bool           `gorm:"default:true;index:idx_resource_endpoints_is_active" json:"is_active"`
	Description    string         `gorm:"type:varchar(500)" json:"description"`
}

// Filters decodes the allow-list. A malformed column yields no filters.
func (e *ResourceEndpoint) Filters() []string {
	if len(e.AllowedFilters) == 0 {
		return nil
	}
	var keys []string
	if err := json.Unmarshal(e.AllowedFilters, &keys); err != nil {
		return nil
	}
	return keys
}

func (e *ResourceEndpoint) AllowsFilter(key string) bool {
	for _, k := range e.Filters() {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// TTL returns the cache lifetime, falling back to def when unset.
func (e *ResourceEndpoint) TTL(def time.Duration) time.Duration {
	if e.CacheTTL > 0 {
		return time.Duration(e.CacheTTL) * time.Second
	}
	return def
}

// FilterList builds the AllowedFilters column value.
func FilterList(keys ...string) datatypes.JSON {
	if keys == nil {
		keys = []string{}
	}
	b, _ := json.Marshal(keys)
	return datatypes.JSON(b)
}
