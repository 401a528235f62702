package extract

import (
	"sort"
	"strings"

	"github.com/rafael/cbenef/internal/client"
	"github.com/rafael/cbenef/internal/config"
)

// Factory builds state extractors over a shared client pair. Adding a state
// means registering its constructor here and enabling it in configuration.
type Factory struct {
	cfg      *config.Config
	download *client.DownloadClient
	avail    *client.AvailabilityClient
}

func NewFactory(cfg *config.Config, download *client.DownloadClient, avail *client.AvailabilityClient) *Factory {
	return &Factory{cfg: cfg, download: download, avail: avail}
}

// Create returns the extractor for a state code, or nil when no extractor is
// registered for it. The lookup is case-insensitive.
func (f *Factory) Create(state string) Extractor {
	switch strings.ToUpper(strings.TrimSpace(state)) {
	case "SC":
		return NewSC(f.cfg, f.download, f.avail)
	case "ES":
		return NewES(f.cfg, f.download, f.avail)
	case "RJ":
		return NewRJ(f.cfg, f.download, f.avail)
	case "PR":
		return NewPR(f.cfg, f.download, f.avail)
	default:
		return nil
	}
}

// RegisteredStates lists every state with an extractor, enabled or not.
func (f *Factory) RegisteredStates() []string {
	return []string{"ES", "PR", "RJ", "SC"}
}

// Available returns the extractors that are both registered and enabled in
// configuration, ordered by configured priority.
func (f *Factory) Available() []Extractor {
	var out []Extractor
	for _, state := range f.RegisteredStates() {
		ext := f.Create(state)
		if ext != nil && ext.Enabled() {
			out = append(out, ext)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() < out[j].Priority()
	})
	return out
}

// ExtractorInfo describes one extractor for diagnostics endpoints and tools.
func (f *Factory) ExtractorInfo(state string) map[string]any {
	ext := f.Create(state)
	if ext == nil {
		return nil
	}
	url, _ := ext.SourceURL()
	formats := make([]string, len(ext.SupportedFormats()))
	for i, format := range ext.SupportedFormats() {
		formats[i] = string(format)
	}
	return map[string]any{
		"stateCode":   ext.StateCode(),
		"displayName": ext.DisplayName(),
		"sourceName":  ext.SourceName(),
		"sourceUrl":   url,
		"formats":     formats,
		"enabled":     ext.Enabled(),
		"priority":    ext.Priority(),
	}
}
