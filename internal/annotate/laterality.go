package annotate

import (
	"regexp"
	"strings"
)

// Laterality relates the reported sensation side to the stimulated hemisphere.
type Laterality string

const (
	Ipsilateral   Laterality = "ipsilateral"
	Contralateral Laterality = "contralateral"
	Unknown       Laterality = "unknown"
)

var (
	rightWord = regexp.MustCompile(`\bright\b`)
	leftWord  = regexp.MustCompile(`\bleft\b`)
	rToken    = regexp.MustCompile(`\br\b`)
	lToken    = regexp.MustCompile(`\bl\b`)
)

// BrainSide returns the upper-cased hemisphere suffix of a subject ID
// ("L", "R", or whatever the last character is).
func BrainSide(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return ""
	}
	return strings.ToUpper(subject[len(subject)-1:])
}

// ClassifyLaterality compares the side named in notes with the stimulated
// hemisphere. The ipsilateral test requires whole words; the contralateral
// tests accept "right"/"left" anywhere in the text.
func ClassifyLaterality(subject string, notes *string) Laterality {
	if notes == nil {
		return Unknown
	}
	side := BrainSide(subject)
	n := strings.ToLower(fold(*notes))

	rightStrict := rightWord.MatchString(n) || rToken.MatchString(n)
	leftStrict := leftWord.MatchString(n) || lToken.MatchString(n)
	if (rightStrict && side == "R") || (leftStrict && side == "L") {
		return Ipsilateral
	}
	if side == "L" && (strings.Contains(n, "right") || rToken.MatchString(n)) {
		return Contralateral
	}
	if side == "R" && (strings.Contains(n, "left") || lToken.MatchString(n)) {
		return Contralateral
	}
	return Unknown
}
