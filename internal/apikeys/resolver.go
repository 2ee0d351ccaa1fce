// Package apikeys resolves provider credentials, preferring user-supplied
// overrides over process environment configuration.
package apikeys

import (
	"fmt"
	"strings"
	"sync"
)

// Service names a credentialed upstream provider.
type Service string

const (
	ServiceAssemblyAI  Service = "assemblyai"
	ServiceMurf        Service = "murf"
	ServiceGemini      Service = "gemini"
	ServiceOpenWeather Service = "openweather"
)

// Services lists every known service in a stable order.
func Services() []Service {
	return []Service{ServiceAssemblyAI, ServiceMurf, ServiceGemini, ServiceOpenWeather}
}

func Known(s Service) bool {
	switch s {
	case ServiceAssemblyAI, ServiceMurf, ServiceGemini, ServiceOpenWeather:
		return true
	}
	return false
}

// Source identifies where a resolved key came from.
type Source string

const (
	SourceUser        Source = "user"
	SourceEnvironment Source = "environment"
	SourceNone        Source = "none"
)

// Status summarizes key availability for a service without exposing the key.
type Status struct {
	Available  bool   `json:"available"`
	Source     Source `json:"source"`
	Message    string `json:"message"`
	KeyPreview string `json:"key_preview,omitempty"`
}

// Resolver stores user-supplied overrides (global and per session) on top of
// the environment keys captured at startup. Resolution order per call:
// session override, then global override, then environment.
type Resolver struct {
	mu        sync.RWMutex
	env       map[Service]string
	global    map[Service]string
	bySession map[string]map[Service]string
}

func NewResolver(env map[Service]string) *Resolver {
	copied := make(map[Service]string, len(env))
	for svc, key := range env {
		copied[svc] = strings.TrimSpace(key)
	}
	return &Resolver{
		env:       copied,
		global:    make(map[Service]string),
		bySession: make(map[string]map[Service]string),
	}
}

// Set stores a user override. An empty sessionID sets the global override.
func (r *Resolver) Set(service Service, key, sessionID string) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if sessionID == "" {
		r.global[service] = key
		return
	}
	keys, ok := r.bySession[sessionID]
	if !ok {
		keys = make(map[Service]string)
		r.bySession[sessionID] = keys
	}
	keys[service] = key
}

// Resolve returns the effective key for a service and where it came from.
func (r *Resolver) Resolve(service Service, sessionID string) (string, Source) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if sessionID != "" {
		if key := r.bySession[sessionID][service]; key != "" {
			return key, SourceUser
		}
	}
	if key := r.global[service]; key != "" {
		return key, SourceUser
	}
	if key := r.env[service]; key != "" {
		return key, SourceEnvironment
	}
	return "", SourceNone
}

// Key returns just the effective key, empty when unconfigured.
func (r *Resolver) Key(service Service, sessionID string) string {
	key, _ := r.Resolve(service, sessionID)
	return key
}

// Clear removes overrides: a session's keys when sessionID is set, otherwise
// all global overrides. Environment keys are never cleared.
func (r *Resolver) Clear(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sessionID != "" {
		delete(r.bySession, sessionID)
		return
	}
	r.global = make(map[Service]string)
}

// Redact masks any stored key material appearing in text. Provider errors
// can echo request URLs, and some upstreams carry the key in a query param.
func (r *Resolver) Redact(text string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mask := func(keys map[Service]string) {
		for _, key := range keys {
			if key != "" {
				text = strings.ReplaceAll(text, key, "***")
			}
		}
	}
	mask(r.env)
	mask(r.global)
	for _, keys := range r.bySession {
		mask(keys)
	}
	return text
}

// Status reports availability, source, and a redacted preview of the
// effective key for a service.
func (r *Resolver) Status(service Service, sessionID string) Status {
	key, source := r.Resolve(service, sessionID)
	if key == "" {
		return Status{
			Available: false,
			Source:    SourceNone,
			Message:   fmt.Sprintf("No API key configured for %s", service),
		}
	}
	return Status{
		Available:  true,
		Source:     source,
		Message:    fmt.Sprintf("%s API key available from %s", titleCase(string(service)), source),
		KeyPreview: preview(key),
	}
}

func preview(key string) string {
	if len(key) <= 12 {
		return "***"
	}
	return key[:8] + "..." + key[len(key)-4:]
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ValidFormat applies per-service shape checks to a candidate key.
func ValidFormat(service Service, key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	switch service {
	case ServiceAssemblyAI:
		return len(key) >= 32 && isAlnum(key)
	case ServiceMurf:
		return len(key) >= 30 && strings.Contains(key, "ap2_")
	case ServiceGemini:
		return len(key) >= 35 && strings.Contains(key, "AIza")
	case ServiceOpenWeather:
		return len(key) >= 30 && isAlnum(key)
	}
	return true
}

func isAlnum(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
