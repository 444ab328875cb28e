package validation

import (
	"context"
	"strings"
	"sync"

	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
)

// AvailabilityChecker answers whether a unique value (email, subdomain) is still free.
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, field registration.FieldName, value string) (registration.ValidationResult, error)
}

// AvailabilityFunc adapts a function to AvailabilityChecker
type AvailabilityFunc func(ctx context.Context, field registration.FieldName, value string) (registration.ValidationResult, error)

// CheckAvailability calls f
func (f AvailabilityFunc) CheckAvailability(ctx context.Context, field registration.FieldName, value string) (registration.ValidationResult, error) {
	return f(ctx, field, value)
}

// Reserved values rejected without asking any remote service
var (
	ReservedEmails     = []string{"admin@test.com", "user@test.com", "test@test.com"}
	ReservedSubdomains = []string{"admin", "api", "www", "mail", "ftp", "test", "support", "help", "blog"}
)

const (
	msgEmailTaken        = "هذا البريد مستخدم بالفعل"
	msgSubdomainReserved = "هذا الاسم محجوز، يرجى اختيار اسم آخر"
	msgSubdomainTaken    = "هذا الاسم غير متاح، جرب اسماً آخر"
)

// ReservedChecker rejects well-known reserved values and defers everything else
// to Next. With no Next every other value is available.
type ReservedChecker struct {
	Next AvailabilityChecker
}

// CheckAvailability implements AvailabilityChecker
func (c *ReservedChecker) CheckAvailability(ctx context.Context, field registration.FieldName, value string) (registration.ValidationResult, error) {
	clean := strings.ToLower(strings.TrimSpace(value))
	if clean == "" {
		return registration.Valid(), nil
	}
	switch field {
	case registration.FieldEmail:
		if contains(ReservedEmails, clean) {
			return registration.Invalid(msgEmailTaken), nil
		}
	case registration.FieldSubdomain:
		if contains(ReservedSubdomains, clean) {
			return registration.Invalid(msgSubdomainReserved), nil
		}
	}
	if c.Next == nil {
		return registration.Valid(), nil
	}
	res, err := c.Next.CheckAvailability(ctx, field, clean)
	if err != nil {
		return registration.Valid(), err
	}
	if !res.IsValid && res.Message == "" {
		res.Message = unavailableMessage(field)
	}
	return res, nil
}

func unavailableMessage(field registration.FieldName) string {
	if field == registration.FieldSubdomain {
		return msgSubdomainTaken
	}
	return msgEmailTaken
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// DefaultCacheLimit is the entry count past which the cache is flushed
const DefaultCacheLimit = 100

// AvailabilityCache remembers availability answers keyed by field and value.
// It is flushed wholesale once it grows past its limit.
type AvailabilityCache struct {
	mu      sync.Mutex
	limit   int
	entries map[string]registration.ValidationResult
}

// NewAvailabilityCache creates a cache; limit <= 0 uses DefaultCacheLimit
func NewAvailabilityCache(limit int) *AvailabilityCache {
	if limit <= 0 {
		limit = DefaultCacheLimit
	}
	return &AvailabilityCache{
		limit:   limit,
		entries: make(map[string]registration.ValidationResult),
	}
}

func cacheKey(field registration.FieldName, value string) string {
	return string(field) + "-" + value
}

// Get returns a cached answer
func (c *AvailabilityCache) Get(field registration.FieldName, value string) (registration.ValidationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.entries[cacheKey(field, value)]
	return res, ok
}

// Put stores an answer, flushing everything first if the cache is over its limit
func (c *AvailabilityCache) Put(field registration.FieldName, value string, res registration.ValidationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) > c.limit {
		c.entries = make(map[string]registration.ValidationResult)
	}
	c.entries[cacheKey(field, value)] = res
}

// Len returns the number of cached entries
func (c *AvailabilityCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// CachedChecker serves repeated questions from an AvailabilityCache.
// Failed lookups are not cached.
type CachedChecker struct {
	Next  AvailabilityChecker
	Cache *AvailabilityCache
}

// CheckAvailability implements AvailabilityChecker
func (c *CachedChecker) CheckAvailability(ctx context.Context, field registration.FieldName, value string) (registration.ValidationResult, error) {
	if res, ok := c.Cache.Get(field, value); ok {
		return res, nil
	}
	res, err := c.Next.CheckAvailability(ctx, field, value)
	if err != nil {
		return res, err
	}
	c.Cache.Put(field, value, res)
	return res, nil
}
