package imagegen

import (
	"strings"
	"unicode"
)

// Cocktail is the view of a cocktail record the image chain needs.
type Cocktail struct {
	ID          uint
	Name        string
	Ingredients []string
	Description string
	ImagePrompt string
}

// Descriptor pairs keyword patterns with the visual cue they contribute.
// Patterns are lower case and matched as substrings. A pattern padded with
// spaces only matches a whole word.
type Descriptor struct {
	Patterns []string
	Cue      string
}

const QualitySuffix = "professional photography, high quality, detailed, 8k resolution, studio lighting, elegant presentation"

// IngredientColors is scanned top to bottom for each ingredient; the first entry
// with a matching pattern wins. More specific patterns must come first
// ("citron vert" before "citron", "gingembre" before "gin").
var IngredientColors = []Descriptor{
	{Patterns: []string{"grenadine"}, Cue: "ruby red gradient"},
	{Patterns: []string{"rhum", "rum", "cachaça", "cachaca"}, Cue: "golden amber"},
	{Patterns: []string{"gingembre", "ginger"}, Cue: "spicy ginger gold"},
	{Patterns: []string{"whisky", "whiskey", "bourbon", "cognac", "armagnac"}, Cue: "deep amber"},
	{Patterns: []string{"vodka", "gin", "saké", "sake"}, Cue: "crystal clear"},
	{Patterns: []string{"tequila", "mezcal"}, Cue: "pale agave gold"},
	{Patterns: []string{"curaçao", "curacao"}, Cue: "electric blue"},
	{Patterns: []string{"cassis", "mûre", "blackberry"}, Cue: "deep purple"},
	{Patterns: []string{"cranberry", "canneberge"}, Cue: "deep crimson"},
	{Patterns: []string{"fraise", "strawberry", "framboise", "raspberry"}, Cue: "berry pink"},
	{Patterns: []string{"ananas", "pineapple", "mangue", "mango", "passion"}, Cue: "sunny yellow"},
	{Patterns: []string{"citron vert", "lime"}, Cue: "fresh lime green"},
	{Patterns: []string{"citron", "lemon"}, Cue: "pale lemon yellow"},
	{Patterns: []string{"orange", "pamplemousse", "grapefruit", "aperol", "campari"}, Cue: "vibrant orange"},
	{Patterns: []string{"menthe", "mint", "basilic", "basil"}, Cue: "fresh mint green"},
	{Patterns: []string{"café", "cafe", "coffee", "espresso", "cacao", "chocolat"}, Cue: "dark espresso brown"},
	{Patterns: []string{"coco", "coconut", "crème", "creme", "cream", "lait"}, Cue: "creamy white"},
	{Patterns: []string{"champagne", "prosecco", "crémant", "cremant", "tonic", "soda", "eau gazeuse"}, Cue: "sparkling bubbles"},
}

// DescriptionSettings contributes every entry whose pattern appears in the
// description, in table order.
var DescriptionSettings = []Descriptor{
	{Patterns: []string{"tropical", "tropique", "exotique", "exotic"}, Cue: "tropical paradise setting with palm leaves"},
	{Patterns: []string{"coucher de soleil", "sunset", "crépuscule"}, Cue: "warm sunset backdrop"},
	{Patterns: []string{"plage", "beach", "océan", "ocean", " mer "}, Cue: "sandy beach background"},
	{Patterns: []string{"hiver", "winter", "noël", "noel", "christmas", "neige"}, Cue: "cozy winter setting with soft snow"},
	{Patterns: []string{"summer", "estival"}, Cue: "bright summer terrace"},
	{Patterns: []string{"élégant", "elegant", "chic", "luxe", "luxury", "raffiné"}, Cue: "luxurious cocktail bar setting"},
	{Patterns: []string{"fête", "party", "soirée", "festif", "festive"}, Cue: "festive party atmosphere with bokeh lights"},
	{Patterns: []string{"romantique", "romantic", "amour"}, Cue: "romantic candlelit setting"},
	{Patterns: []string{"jardin", "garden", "floral", "fleur"}, Cue: "lush garden setting with flowers"},
	{Patterns: []string{"mystère", "mystérieux", "mysterious", "nuit", "night"}, Cue: "moody night-time bar ambiance"},
}

// BuildPrompt returns the text sent to image providers. An explicit image
// prompt is returned verbatim; otherwise one is derived from the name,
// ingredients and description.
func BuildPrompt(c Cocktail) string {
	if c.ImagePrompt != "" {
		return c.ImagePrompt
	}

	name := strings.TrimSpace(c.Name)
	subject := "cocktail"
	if name != "" {
		subject = name + " cocktail"
	}

	parts := []string{subject}
	seen := make(map[string]bool)
	add := func(cue string) {
		if !seen[cue] {
			seen[cue] = true
			parts = append(parts, cue)
		}
	}

	for _, ingredient := range c.Ingredients {
		if cue, ok := firstMatch(IngredientColors, ingredient); ok {
			add(cue)
		}
	}

	description := words(c.Description)
	for _, d := range DescriptionSettings {
		if matches(d, description) {
			add(d.Cue)
		}
	}

	parts = append(parts, QualitySuffix)
	return strings.Join(parts, ", ")
}

func firstMatch(table []Descriptor, text string) (string, bool) {
	text = strings.ToLower(text)
	for _, d := range table {
		if matches(d, text) {
			return d.Cue, true
		}
	}
	return "", false
}

// words lower-cases text and reduces punctuation to single spaces, with a
// space at each end.
func words(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(fields, " ") + " "
}

func matches(d Descriptor, lowered string) bool {
	for _, p := range d.Patterns {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}
