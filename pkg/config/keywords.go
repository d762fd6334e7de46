package config

// KeywordConfig holds the closed multilingual phrase lists that gate
// call-session routing. The crisis list is deliberately strict: it names
// explicit self-harm phrases only, so statements of homelessness or
// urgency never preempt the bed flow. Additions require redeploy.
type KeywordConfig struct {
	// Crisis maps a language code to explicit self-harm phrases.
	Crisis map[string][]string `yaml:"crisis"`

	// Farewell maps a language code to call-ending phrases.
	Farewell map[string][]string `yaml:"farewell"`
}

// DefaultKeywords returns the built-in phrase lists for English, Spanish,
// Portuguese, and French.
func DefaultKeywords() *KeywordConfig {
	return &KeywordConfig{
		Crisis: map[string][]string{
			"en": {
				"kill myself",
				"suicide",
				"suicidal",
				"hurt myself",
				"end my life",
				"want to die",
			},
			"es": {
				"suicidio",
				"suicidarme",
				"matarme",
				"quitarme la vida",
				"quiero morir",
				"lastimarme",
				"terminar mi vida",
			},
			"pt": {
				"suicídio",
				"me matar",
				"quero morrer",
				"me machucar",
				"acabar com a minha vida",
			},
			"fr": {
				"suicide",
				"me tuer",
				"me suicider",
				"veux mourir",
				"me blesser",
				"en finir avec la vie",
			},
		},
		Farewell: map[string][]string{
			"en": {"goodbye", "bye", "that's all", "hang up", "thank you, that's it"},
			"es": {"adiós", "hasta luego", "eso es todo", "gracias, eso es todo"},
			"pt": {"tchau", "adeus", "é só isso", "obrigado, é tudo"},
			"fr": {"au revoir", "c'est tout", "merci, c'est tout"},
		},
	}
}

// Languages returns the language codes with a configured crisis list.
func (k *KeywordConfig) Languages() []string {
	langs := make([]string, 0, len(k.Crisis))
	for lang := range k.Crisis {
		langs = append(langs, lang)
	}
	return langs
}
