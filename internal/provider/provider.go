package provider

import (
	"errors"
	"os"
	"path/filepath"

	"unifiedfs/internal/logging"

	"golang.org/x/sys/unix"
)

var (
	providerLogger = logging.GetLogger().WithPrefix("provider")
)

// DefaultAuthority is the authority used when none is configured.
const DefaultAuthority = "pfs.android.contentprovider"

// Config describes one provider instance. BaseDir must already be resolved
// to a directory path (see ResolveBaseDir).
type Config struct {
	Authority    string
	Title        string
	Description  string
	Icon         int
	BaseDir      string
	TopDirs      []string
	MimeTypes    map[string]string
	FeatureLevel int
}

// Provider serves document queries over the configured top directories.
// Everything except the handle table is immutable after New returns.
type Provider struct {
	cfg      Config
	registry *Registry
	codec    *Codec
	mimes    *MimeTable
	caps     Capabilities
	handles  *HandleTable
}

// New builds a provider. Bad root records are logged and skipped, so New
// only fails when the base directory itself is unusable.
func New(cfg Config) (*Provider, error) {
	if cfg.Authority == "" {
		cfg.Authority = DefaultAuthority
	}

	baseDir := absPath(cfg.BaseDir)
	info, err := os.Stat(baseDir)
	if err != nil {
		return nil, newError(OpRegister, baseDir, KindConfiguration, err)
	}
	if !info.IsDir() {
		return nil, newError(OpRegister, baseDir, KindConfiguration, nil)
	}

	p := &Provider{
		cfg:      cfg,
		registry: NewRegistry(baseDir, cfg.TopDirs, cfg.Icon),
		codec:    NewCodec(baseDir),
		mimes:    NewMimeTable(cfg.MimeTypes),
		caps:     CapabilitiesFor(cfg.FeatureLevel),
		handles:  NewHandleTable(),
	}

	providerLogger.Info("Provider %s ready: %d top directories, feature level %d",
		cfg.Authority, p.registry.Len(), p.caps.FeatureLevel)
	return p, nil
}

// Authority returns the authority content URIs are built with.
func (p *Provider) Authority() string {
	return p.cfg.Authority
}

// Registry returns the root registry.
func (p *Provider) Registry() *Registry {
	return p.registry
}

// Codec returns the document-ID codec.
func (p *Provider) Codec() *Codec {
	return p.codec
}

// Capabilities returns the flag masks resolved at startup.
func (p *Provider) Capabilities() Capabilities {
	return p.caps
}

// Handles returns the open-file table.
func (p *Provider) Handles() *HandleTable {
	return p.handles
}

// ContentURI builds the content URI of a document ID.
func (p *Provider) ContentURI(id string) string {
	return BuildContentURI(p.cfg.Authority, id)
}

// decode maps id to an existing path and refuses paths that lie outside the
// base directory and every top directory.
func (p *Provider) decode(op, id string) (string, error) {
	path, err := p.codec.Decode(id)
	if err != nil {
		var pErr *Error
		if errors.As(err, &pErr) {
			pErr.Op = op
		}
		return "", err
	}
	if !IsRoot(id) && !p.registry.contains(path) {
		providerLogger.Warn("Document %q resolves outside the exported directories: %s", id, filepath.Clean(path))
		return "", newError(op, id, KindNotFound, nil)
	}
	return path, nil
}

func writable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
