package s3

import "strings"

// KeyBuilder maps logical keys to the keys actually stored in the
// bucket and back.
type KeyBuilder interface {
	BuildKey(key string) string
	StripKey(fullKey string) string
}

// PrefixKeyBuilder prepends a fixed prefix to every key.
type PrefixKeyBuilder struct {
	Prefix string
}

// NewPrefixKeyBuilder creates a PrefixKeyBuilder, trimming separator
// noise from the prefix.
func NewPrefixKeyBuilder(prefix string) *PrefixKeyBuilder {
	return &PrefixKeyBuilder{Prefix: strings.Trim(prefix, "/")}
}

func (kb *PrefixKeyBuilder) BuildKey(key string) string {
	if kb.Prefix == "" {
		return key
	}
	return kb.Prefix + "/" + strings.TrimPrefix(key, "/")
}

func (kb *PrefixKeyBuilder) StripKey(fullKey string) string {
	if kb.Prefix == "" {
		return fullKey
	}
	return strings.TrimPrefix(strings.TrimPrefix(fullKey, kb.Prefix), "/")
}

// NopKeyBuilder stores keys untouched.
type NopKeyBuilder struct{}

func (NopKeyBuilder) BuildKey(key string) string     { return key }
func (NopKeyBuilder) StripKey(fullKey string) string { return fullKey }
