package llm

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/umputun/newsdigest/pkg/config"
	"github.com/umputun/newsdigest/pkg/domain"
)

const classifySample = 500 // leading characters used for classification

// category keywords, phrases are matched on word boundaries
var categoryKeywords = []struct {
	category domain.ContentCategory
	keywords []string
}{
	{domain.CategoryTechnical, []string{"code", "api", "function", "algorithm", "implementation", "bug",
		"feature", "framework", "library", "deploy", "compiler", "database", "kubernetes", "golang"}},
	{domain.CategoryResearch, []string{"study", "research", "paper", "findings", "experiment", "hypothesis",
		"methodology", "results", "conclusion", "researchers", "arxiv"}},
	{domain.CategoryNews, []string{"breaking", "announced", "announces", "released", "launches", "reports",
		"according to", "sources", "yesterday", "today"}},
	{domain.CategoryTutorial, []string{"how to", "guide", "tutorial", "step by step", "learn", "example",
		"walkthrough", "getting started"}},
	{domain.CategoryOpinion, []string{"opinion", "i think", "i believe", "in my view", "editorial",
		"why i", "should we", "unpopular", "rant", "essay"}},
}

// base generation profile per category, model is filled from the primary or analytical model
var baseProfiles = map[domain.ContentCategory]struct {
	analytical  bool
	temperature float64
	maxTokens   int
}{
	domain.CategoryNews:      {analytical: false, temperature: 0.3, maxTokens: 200},
	domain.CategoryTechnical: {analytical: true, temperature: 0.2, maxTokens: 300},
	domain.CategoryResearch:  {analytical: true, temperature: 0.2, maxTokens: 350},
	domain.CategoryTutorial:  {analytical: true, temperature: 0.3, maxTokens: 300},
	domain.CategoryOpinion:   {analytical: false, temperature: 0.5, maxTokens: 250},
	domain.CategoryGeneral:   {analytical: false, temperature: 0.4, maxTokens: 250},
}

// Router classifies items and maps categories to generation parameters
type Router struct {
	profiles     map[domain.ContentCategory]domain.GenerationParams
	primaryModel string
	longContent  int
}

// NewRouter makes a router from the llm config, per category overrides replace the built-in profile values
func NewRouter(cfg config.LLMConfig) *Router {
	r := &Router{
		profiles:     map[domain.ContentCategory]domain.GenerationParams{},
		primaryModel: cfg.PrimaryModel,
		longContent:  cfg.LongContentChars,
	}
	for cat, base := range baseProfiles {
		params := domain.GenerationParams{
			Model:       cfg.PrimaryModel,
			Prompt:      string(cat),
			Temperature: base.temperature,
			MaxTokens:   base.maxTokens,
		}
		if base.analytical {
			params.Model = cfg.AnalyticalModel
		}
		if override, ok := cfg.Profiles[string(cat)]; ok {
			if override.Model != "" {
				params.Model = override.Model
			}
			if override.Temperature > 0 {
				params.Temperature = override.Temperature
			}
			if override.MaxTokens > 0 {
				params.MaxTokens = override.MaxTokens
			}
		}
		r.profiles[cat] = params
	}
	return r
}

// Validate checks that every category maps to usable generation parameters
func (r *Router) Validate() error {
	for _, cat := range domain.AllCategories() {
		p, ok := r.profiles[cat]
		if !ok {
			return &domain.ConfigError{Field: "llm.profiles." + string(cat), Reason: "category has no generation profile"}
		}
		if p.Model == "" {
			return &domain.ConfigError{Field: "llm.profiles." + string(cat) + ".model", Reason: "model is not set"}
		}
		if _, ok := promptTemplates[p.Prompt]; !ok {
			return &domain.ConfigError{Field: "llm.profiles." + string(cat), Reason: fmt.Sprintf("unknown prompt %q", p.Prompt)}
		}
		if p.MaxTokens <= 0 {
			return &domain.ConfigError{Field: "llm.profiles." + string(cat) + ".max_tokens", Reason: "must be positive"}
		}
	}
	return nil
}

// Classify picks the category with the most keyword hits in the leading part of title and body.
// Ties go to the earlier category in keyword table order, no hits means general.
func (r *Router) Classify(item domain.ContentItem) domain.ContentCategory {
	sample := item.Title + " " + item.Body
	if runes := []rune(sample); len(runes) > classifySample {
		sample = string(runes[:classifySample])
	}
	text := " " + normalizeWords(sample) + " "

	best, bestHits := domain.CategoryGeneral, 0
	for _, ck := range categoryKeywords {
		hits := 0
		for _, k := range ck.keywords {
			if strings.Contains(text, " "+k+" ") {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = ck.category, hits
		}
	}
	return best
}

// ParamsFor returns generation parameters for the category. Content longer than the
// long content threshold goes to the primary model.
func (r *Router) ParamsFor(category domain.ContentCategory, contentLen int) domain.GenerationParams {
	p, ok := r.profiles[category]
	if !ok {
		p = r.profiles[domain.CategoryGeneral]
	}
	if r.longContent > 0 && contentLen > r.longContent && r.primaryModel != "" {
		p.Model = r.primaryModel
	}
	return p
}

// Route classifies the item and returns its category and generation parameters
func (r *Router) Route(item domain.ContentItem) (domain.ContentCategory, domain.GenerationParams) {
	cat := r.Classify(item)
	return cat, r.ParamsFor(cat, len(item.Body))
}

// normalizeWords lower-cases text and replaces anything except letters, digits and apostrophes with single spaces
func normalizeWords(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	return strings.Join(fields, " ")
}
