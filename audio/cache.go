package audio

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the index of pre-generated clips inside a cache directory.
const ManifestFile = "manifest.yaml"

// DefaultPrefixLength is the number of leading characters compared when an
// exact cache lookup misses.
const DefaultPrefixLength = 50

// CacheEntry is one pre-generated clip.
type CacheEntry struct {
	Speaker string `yaml:"speaker"`
	Text    string `yaml:"text"`
	File    string `yaml:"file"`
	Format  Format `yaml:"format"`
}

type manifest struct {
	Entries []CacheEntry `yaml:"entries"`
}

// CacheProvider serves pre-generated clips from a directory. Lookups match
// the speaker name and text exactly, then fall back to the first N characters
// of the text for the same speaker.
type CacheProvider struct {
	dir       string
	prefixLen int
	logger    *slog.Logger

	mu      sync.RWMutex
	loaded  bool
	entries []CacheEntry
	byKey   map[string]int
}

// CacheOption configures a CacheProvider.
type CacheOption func(*CacheProvider)

// WithPrefixLength sets the prefix match length. A negative value disables
// prefix matching.
func WithPrefixLength(n int) CacheOption {
	return func(c *CacheProvider) {
		c.prefixLen = n
	}
}

// WithCacheLogger sets the logger.
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *CacheProvider) {
		c.logger = logger
	}
}

// NewCacheProvider creates a cache rooted at dir.
func NewCacheProvider(dir string, opts ...CacheOption) *CacheProvider {
	c := &CacheProvider{
		dir:       dir,
		prefixLen: DefaultPrefixLength,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.prefixLen == 0 {
		c.prefixLen = DefaultPrefixLength
	}
	return c
}

// Name implements Provider.
func (c *CacheProvider) Name() string { return "cache" }

// Source implements Provider.
func (c *CacheProvider) Source() Source { return SourceCached }

// Dir returns the cache directory.
func (c *CacheProvider) Dir() string { return c.dir }

// Available reports whether a cache directory is configured.
func (c *CacheProvider) Available() bool {
	return c.dir != ""
}

// Attempt implements Provider. A miss returns (nil, nil).
func (c *CacheProvider) Attempt(ctx context.Context, req Request) (*Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.load(); err != nil {
		return nil, err
	}

	entry, ok := c.lookup(req)
	if !ok {
		return nil, nil
	}

	path := filepath.Join(c.dir, entry.File)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cached clip %s: %w", entry.File, err)
	}

	format := entry.Format
	if format == "" {
		format = FormatFromPath(path)
	}
	return &Clip{Path: path, Format: format, Source: SourceCached, Provider: c.Name()}, nil
}

// Add stores a clip for (speaker, text) and records it in the manifest.
func (c *CacheProvider) Add(speaker, text string, format Format, data []byte) (CacheEntry, error) {
	if c.dir == "" {
		return CacheEntry{}, ErrProviderUnavailable
	}
	if len(data) == 0 {
		return CacheEntry{}, ErrEmptyAudio
	}
	if format == "" {
		format = FormatWAV
	}
	if err := c.load(); err != nil {
		return CacheEntry{}, err
	}

	key := CacheKey(speaker, text)
	entry := CacheEntry{
		Speaker: speaker,
		Text:    text,
		File:    key + "." + string(format),
		Format:  format,
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return CacheEntry{}, fmt.Errorf("create cache dir: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(c.dir, entry.File), data); err != nil {
		return CacheEntry{}, fmt.Errorf("write cached clip: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i, ok := c.byKey[key]; ok {
		c.entries[i] = entry
	} else {
		c.byKey[key] = len(c.entries)
		c.entries = append(c.entries, entry)
	}

	out, err := yaml.Marshal(manifest{Entries: c.entries})
	if err != nil {
		return CacheEntry{}, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(c.dir, ManifestFile), out); err != nil {
		return CacheEntry{}, fmt.Errorf("write manifest: %w", err)
	}
	return entry, nil
}

// Contains reports whether an exact entry exists for (speaker, text).
func (c *CacheProvider) Contains(speaker, text string) bool {
	if err := c.load(); err != nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byKey[CacheKey(speaker, text)]
	return ok
}

// Entries returns the manifest entries.
func (c *CacheProvider) Entries() ([]CacheEntry, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]CacheEntry(nil), c.entries...), nil
}

func (c *CacheProvider) load() error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}

	c.byKey = make(map[string]int)
	data, err := os.ReadFile(filepath.Join(c.dir, ManifestFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.loaded = true
			return nil
		}
		return fmt.Errorf("read cache manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parse cache manifest: %w", err)
	}
	for _, e := range m.Entries {
		key := CacheKey(e.Speaker, e.Text)
		if _, dup := c.byKey[key]; dup {
			c.logger.Debug("duplicate cache entry ignored", "speaker", e.Speaker, "file", e.File)
			continue
		}
		c.byKey[key] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	c.loaded = true
	return nil
}

func (c *CacheProvider) lookup(req Request) (CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	speakers := []string{req.speaker()}
	if req.SpeakerID != req.speaker() {
		speakers = append(speakers, req.SpeakerID)
	}

	for _, s := range speakers {
		if i, ok := c.byKey[CacheKey(s, req.Text)]; ok {
			return c.entries[i], true
		}
	}

	if c.prefixLen < 0 {
		return CacheEntry{}, false
	}
	want := prefix(normalizeText(req.Text), c.prefixLen)
	for _, s := range speakers {
		speaker := normalizeSpeaker(s)
		for _, e := range c.entries {
			if normalizeSpeaker(e.Speaker) != speaker {
				continue
			}
			if prefix(normalizeText(e.Text), c.prefixLen) == want {
				return e, true
			}
		}
	}
	return CacheEntry{}, false
}

// CacheKey names the cached clip for (speaker, text): the hex BLAKE2b-256 of
// the NFC-normalized speaker and text.
func CacheKey(speaker, text string) string {
	sum := blake2b.Sum256([]byte(normalizeSpeaker(speaker) + "\x00" + normalizeText(text)))
	return hex.EncodeToString(sum[:])
}

func normalizeSpeaker(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
