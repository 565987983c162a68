package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/vakya-app/vakya/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// ListenAddr
	if c.ListenAddr == "" {
		warnings = append(warnings, "listen_addr is empty, defaulting to ':8080'")
		c.ListenAddr = ":8080"
	}

	// AllowedUsers: an empty allowlist would lock everyone out
	if len(c.AllowedUsers) == 0 {
		return warnings, utils.WrapErrorf(utils.ErrConfigValidation, "allowed_users must list at least one user")
	}
	for i, u := range c.AllowedUsers {
		c.AllowedUsers[i] = strings.ToLower(strings.TrimSpace(u))
	}

	// StateDir
	if c.StateDir == "" {
		warnings = append(warnings, "state_dir is empty, defaulting to './vakya_state'")
		c.StateDir = "./vakya_state"
	}

	// StorageURL
	if c.StorageURL == "" {
		warnings = append(warnings, "storage_url is empty, defaulting to 'file://./vakya_files'")
		c.StorageURL = "file://./vakya_files"
	} else if _, parseErr := url.Parse(c.StorageURL); parseErr != nil {
		return warnings, utils.WrapErrorf(utils.ErrConfigValidation, "storage_url '%s' is not a valid URL: %v", c.StorageURL, parseErr)
	}

	// MaxUploadSizeBytes
	if c.MaxUploadSizeBytes <= 0 {
		c.MaxUploadSizeBytes = 25 * 1024 * 1024
	}

	// Fetch defaults
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "VakyaClipper/1.0 (+https://vakya.app)"
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		c.Fetch.MaxBodyBytes = 10 * 1024 * 1024
	}
	if c.Fetch.HTTPClient.Timeout <= 0 {
		c.Fetch.HTTPClient.Timeout = 30 * time.Second
	}
	if c.Fetch.HTTPClient.MaxIdleConns <= 0 {
		c.Fetch.HTTPClient.MaxIdleConns = 20
	}
	if c.Fetch.HTTPClient.MaxIdleConnsPerHost <= 0 {
		c.Fetch.HTTPClient.MaxIdleConnsPerHost = 4
	}
	if c.Fetch.HTTPClient.IdleConnTimeout <= 0 {
		c.Fetch.HTTPClient.IdleConnTimeout = 90 * time.Second
	}
	if c.Fetch.HTTPClient.TLSHandshakeTimeout <= 0 {
		c.Fetch.HTTPClient.TLSHandshakeTimeout = 10 * time.Second
	}
	if c.Fetch.HTTPClient.DialerTimeout <= 0 {
		c.Fetch.HTTPClient.DialerTimeout = 10 * time.Second
	}

	// Adapt defaults
	if c.Adapt.TokenizerEncoding == "" {
		c.Adapt.TokenizerEncoding = "cl100k_base"
	}
	if c.Adapt.MaxChunkTokens <= 0 {
		c.Adapt.MaxChunkTokens = 1024
	}
	if c.Adapt.ChunkOverlap < 0 {
		warnings = append(warnings, "adapt.chunk_overlap cannot be negative, setting to 0")
		c.Adapt.ChunkOverlap = 0
	}
	if c.Adapt.ChunkOverlap >= c.Adapt.MaxChunkTokens {
		warnings = append(warnings, fmt.Sprintf(
			"adapt.chunk_overlap (%d) >= adapt.max_chunk_tokens (%d), setting overlap to 0",
			c.Adapt.ChunkOverlap, c.Adapt.MaxChunkTokens))
		c.Adapt.ChunkOverlap = 0
	}
	if c.Adapt.MaxDocumentTokens <= 0 {
		c.Adapt.MaxDocumentTokens = 100_000
	}

	// GCInterval
	if c.GCInterval <= 0 {
		c.GCInterval = 10 * time.Minute
	}

	// ShutdownTimeout
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 15 * time.Second
	}

	return warnings, nil
}

// UserAllowed reports whether the given identity is on the allowlist.
// Comparison is case-insensitive; the allowlist is normalized by Validate.
func (c *AppConfig) UserAllowed(user string) bool {
	user = strings.ToLower(strings.TrimSpace(user))
	if user == "" {
		return false
	}
	for _, allowed := range c.AllowedUsers {
		if user == allowed {
			return true
		}
	}
	return false
}
