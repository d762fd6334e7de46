// Package intent maps caller utterances to a closed set of intents and
// detects the caller's language. Classification is keyword-based and
// strict about crisis: only the configured explicit self-harm phrases
// trigger it, so statements of homelessness or urgency always route to
// the bed flow.
package intent

import (
	"slices"
	"sort"
	"strings"

	"github.com/bethesda-mission/shelterline/pkg/config"
)

// Intent is one of the closed set of caller intents.
type Intent string

const (
	BedInquiry Intent = "bed_inquiry"
	Chapel     Intent = "chapel"
	Volunteer  Intent = "volunteer"
	Donation   Intent = "donation"
	Crisis     Intent = "crisis"
	Other      Intent = "other"
)

// Classifier classifies utterances. The crisis and farewell lists come
// from configuration; the flow keyword lists are compiled in because they
// only steer routing, never preemption.
type Classifier struct {
	keywords *config.KeywordConfig
}

// NewClassifier creates a classifier over the configured keyword lists.
func NewClassifier(keywords *config.KeywordConfig) *Classifier {
	if keywords == nil {
		panic("NewClassifier: keywords must not be nil")
	}
	return &Classifier{keywords: keywords}
}

// Classify maps one utterance to an intent. Crisis is checked first and
// requires an explicit phrase from the configured list.
func (c *Classifier) Classify(utterance string) Intent {
	text := normalize(utterance)
	if text == "" {
		return Other
	}
	if crisis, _ := c.IsCrisis(utterance, ""); crisis {
		return Crisis
	}
	switch {
	case containsAny(text, bedKeywords):
		return BedInquiry
	case containsAny(text, chapelKeywords):
		return Chapel
	case containsAny(text, volunteerKeywords):
		return Volunteer
	case containsAny(text, donationKeywords):
		return Donation
	}
	return Other
}

// crisisLangOrder fixes the scan order for phrases that appear in more
// than one language list ("suicide" is both English and French).
var crisisLangOrder = []string{"en", "es", "pt", "fr"}

// IsCrisis reports whether the utterance contains an explicit self-harm
// phrase, and in which language list it matched. A caller whose language
// is already known gets that list checked first, so the hotline referral
// comes back in their language; otherwise ties resolve in a fixed order.
func (c *Classifier) IsCrisis(utterance, preferredLang string) (bool, string) {
	text := normalize(utterance)
	if preferredLang != "" && containsAny(text, c.keywords.Crisis[preferredLang]) {
		return true, preferredLang
	}
	for _, lang := range crisisLangOrder {
		if lang == preferredLang {
			continue
		}
		if containsAny(text, c.keywords.Crisis[lang]) {
			return true, lang
		}
	}
	// Any extra languages configured beyond the built-in four, in a
	// stable order.
	extra := make([]string, 0, len(c.keywords.Crisis))
	for lang := range c.keywords.Crisis {
		if lang != preferredLang && !slices.Contains(crisisLangOrder, lang) {
			extra = append(extra, lang)
		}
	}
	sort.Strings(extra)
	for _, lang := range extra {
		if containsAny(text, c.keywords.Crisis[lang]) {
			return true, lang
		}
	}
	return false, ""
}

// IsFarewell reports whether the utterance is an explicit call-ending
// phrase in any configured language.
func (c *Classifier) IsFarewell(utterance string) bool {
	text := normalize(utterance)
	for _, phrases := range c.keywords.Farewell {
		if containsAny(text, phrases) {
			return true
		}
	}
	return false
}

// DetectLanguage guesses the utterance's language from marker words.
// Ties and unknowns default to English; the session stores the first
// substantive detection and sticks with it.
func DetectLanguage(utterance string) string {
	text := normalize(utterance)
	best, bestScore := "en", 0
	for _, lm := range languageMarkers {
		score := 0
		for _, marker := range lm.markers {
			if strings.Contains(text, marker) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = lm.lang, score
		}
	}
	return best
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

// Flow routing keywords per supported language. Matching any one routes
// the call; these never trigger crisis handling.
var (
	bedKeywords = []string{
		"bed", "shelter", "homeless", "place to stay", "place to sleep",
		"somewhere to sleep", "nowhere to sleep", "nowhere to go",
		"need a room", "hungry", "starving", "urgent", "desperate",
		"tengo hambre", "fome", "faim",
		"cama", "refugio", "sin hogar", "donde dormir", "un lugar para dormir",
		"abrigo", "sem-teto", "sem teto", "onde dormir",
		"un lit", "abri", "sans-abri", "sans abri", "dormir",
	}
	chapelKeywords = []string{
		"chapel", "worship", "preach", "sermon", "church service", "lead a service",
		"capilla", "culto", "predicar",
		"capela", "pregar",
		"chapelle", "office religieux",
	}
	volunteerKeywords = []string{
		"volunteer", "volunteering", "serve meals", "help out",
		"voluntario", "voluntaria", "ser voluntario",
		"voluntário", "voluntária",
		"bénévole", "benevole", "faire du bénévolat",
	}
	donationKeywords = []string{
		"donate", "donation", "give money", "contribute", "drop off clothes",
		"donar", "donación", "donacion",
		"doar", "doação", "doacao",
		"faire un don", "donner de l'argent",
	}
)

// languageMarkers are high-frequency words that identify a language,
// checked in a fixed order so ties resolve deterministically. English is
// the fallback and needs no markers.
var languageMarkers = []struct {
	lang    string
	markers []string
}{
	{"es", []string{"necesito", "quiero", "hola", "estoy", "gracias", "ayuda", "una cama", "matarme"}},
	{"pt", []string{"preciso", "quero", "olá", "estou", "obrigado", "obrigada", "uma cama", "me matar"}},
	{"fr", []string{"je ", "besoin", "bonjour", "merci", "s'il vous", "un lit", "je suis"}},
}
