package ride

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"ridecheck/internal/types"
)

// DefaultPrecipitationTokens is the built-in rain and snow vocabulary. Tokens
// are matched as substrings of a condition label, so the list is ordered from
// most to least specific; the first hit is the one reported.
var DefaultPrecipitationTokens = []string{
	// English (OpenWeather-style descriptions)
	"thunderstorm with heavy rain",
	"thunderstorm with rain",
	"thunderstorm with light rain",
	"freezing rain",
	"very heavy rain",
	"extreme rain",
	"light rain",
	"moderate rain",
	"heavy rain",
	"shower rain",
	"rain showers",
	"showers",
	"drizzle",
	"sleet",
	"light snow",
	"moderate snow",
	"heavy snow",
	"snow showers",
	"shower snow",
	"blizzard",
	"rain",
	"snow",

	// Chinese (QWeather condition text)
	"雷阵雨",
	"雨夹雪",
	"冻雨",
	"毛毛雨",
	"阵雨",
	"小雨",
	"中雨",
	"大雨",
	"暴雨",
	"阵雪",
	"小雪",
	"中雪",
	"大雪",
	"暴雪",
	"雨",
	"雪",
}

// Vocabulary is the set of descriptor tokens that mark a condition label as
// rain or snow.
type Vocabulary struct {
	tokens        []string
	folded        []string
	caseSensitive bool
}

// NewVocabulary builds a Vocabulary from tokens. Empty tokens are dropped;
// they would otherwise match every label.
func NewVocabulary(tokens []string, match types.PrecipitationMatch) *Vocabulary {
	v := &Vocabulary{caseSensitive: match == types.MatchCaseSensitive}
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v.tokens = append(v.tokens, tok)
		v.folded = append(v.folded, strings.ToLower(tok))
	}
	return v
}

// DefaultVocabulary returns the built-in vocabulary with case-insensitive
// matching.
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary(DefaultPrecipitationTokens, types.MatchCaseInsensitive)
}

// Tokens returns a copy of the vocabulary in match order.
func (v *Vocabulary) Tokens() []string {
	out := make([]string, len(v.tokens))
	copy(out, v.tokens)
	return out
}

// CaseSensitive reports the configured matching mode.
func (v *Vocabulary) CaseSensitive() bool {
	return v.caseSensitive
}

// Match reports the first token contained in label.
func (v *Vocabulary) Match(label string) (string, bool) {
	if label == "" {
		return "", false
	}
	if v.caseSensitive {
		for _, tok := range v.tokens {
			if strings.Contains(label, tok) {
				return tok, true
			}
		}
		return "", false
	}
	lower := strings.ToLower(label)
	for i, tok := range v.folded {
		if strings.Contains(lower, tok) {
			return v.tokens[i], true
		}
	}
	return "", false
}

// vocabularyFile is the on-disk shape of a vocabulary override.
//
//	mode: extend        # or "replace"
//	tokens:
//	  - graupel
//	  - hail
type vocabularyFile struct {
	Mode   string   `yaml:"mode"`
	Tokens []string `yaml:"tokens"`
}

// ParseVocabulary decodes a YAML vocabulary override. With mode "extend"
// (the default) the tokens are placed ahead of the built-in table; with
// "replace" they become the whole table.
func ParseVocabulary(data []byte, match types.PrecipitationMatch) (*Vocabulary, error) {
	var f vocabularyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing precipitation vocabulary: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(f.Mode)) {
	case "", "extend":
		tokens := make([]string, 0, len(f.Tokens)+len(DefaultPrecipitationTokens))
		tokens = append(tokens, f.Tokens...)
		tokens = append(tokens, DefaultPrecipitationTokens...)
		return NewVocabulary(tokens, match), nil
	case "replace":
		v := NewVocabulary(f.Tokens, match)
		if len(v.tokens) == 0 {
			return nil, fmt.Errorf("precipitation vocabulary: replace mode requires at least one token")
		}
		return v, nil
	default:
		return nil, fmt.Errorf("precipitation vocabulary: unknown mode %q", f.Mode)
	}
}
