package pipeline

import (
	"fmt"
	"sort"

	"medintake/internal/config"
	"medintake/internal/domain"
	"medintake/internal/ocr"
	"medintake/internal/parser"
	"medintake/internal/port"

	// Provider implementations register themselves at init time.
	_ "medintake/internal/ocr/docai"
	_ "medintake/internal/ocr/gemini"
	_ "medintake/internal/ocr/mistral"
	_ "medintake/internal/parser/gemini"
	_ "medintake/internal/parser/openai"
)

// Registry holds every configured OCR and LLM provider, built once at
// startup. Resolution by identifier is read-only afterwards, so the registry
// is safe for concurrent use.
type Registry struct {
	cfg *config.Config
	ocr map[string]port.OCRProvider
	llm map[string]port.Structurer
}

// NewRegistry instantiates all registered providers from the config.
func NewRegistry(cfg *config.Config) (*Registry, error) {
	r := &Registry{
		cfg: cfg,
		ocr: map[string]port.OCRProvider{},
		llm: map[string]port.Structurer{},
	}
	for _, name := range ocr.Names() {
		p, err := ocr.NewProvider(name, cfg)
		if err != nil {
			return nil, fmt.Errorf("ocr provider %s: %w", name, err)
		}
		r.ocr[name] = p
	}
	for _, name := range parser.Names() {
		s, err := parser.NewStructurer(name, cfg)
		if err != nil {
			return nil, fmt.Errorf("llm provider %s: %w", name, err)
		}
		r.llm[name] = s
	}
	return r, nil
}

// OCR resolves an OCR provider by identifier. An empty identifier selects the
// configured default.
func (r *Registry) OCR(id string) (port.OCRProvider, error) {
	if id == "" {
		id = r.cfg.OCR.Default
	}
	p, ok := r.ocr[id]
	if !ok {
		return nil, fmt.Errorf("ocr provider %q: %w", id, domain.ErrUnknownProvider)
	}
	return p, nil
}

// LLM resolves a structuring provider by identifier. An empty identifier
// selects the configured default.
func (r *Registry) LLM(id string) (port.Structurer, error) {
	if id == "" {
		id = r.cfg.LLM.Default
	}
	s, ok := r.llm[id]
	if !ok {
		return nil, fmt.Errorf("llm provider %q: %w", id, domain.ErrUnknownProvider)
	}
	return s, nil
}

// ProviderInfo describes one provider for the discovery endpoint.
type ProviderInfo struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Default   bool   `json:"default"`
}

// ProviderStatus lists all OCR and LLM providers with their availability,
// sorted by name. Availability is a pure capability check.
func (r *Registry) ProviderStatus() (ocrInfos, llmInfos []ProviderInfo) {
	for name, p := range r.ocr {
		ocrInfos = append(ocrInfos, ProviderInfo{
			Name:      name,
			Available: p.Available(),
			Default:   name == r.cfg.OCR.Default,
		})
	}
	for name, s := range r.llm {
		llmInfos = append(llmInfos, ProviderInfo{
			Name:      name,
			Available: s.Available(),
			Default:   name == r.cfg.LLM.Default,
		})
	}
	sort.Slice(ocrInfos, func(i, j int) bool { return ocrInfos[i].Name < ocrInfos[j].Name })
	sort.Slice(llmInfos, func(i, j int) bool { return llmInfos[i].Name < llmInfos[j].Name })
	return ocrInfos, llmInfos
}
