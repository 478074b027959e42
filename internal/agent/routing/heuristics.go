package routing

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clinic-frontdesk/agent/internal/agent/model"
)

const (
	maxAnswerWords = 8
	maxAnswerRunes = 80
)

// interrogatives open a question in Indonesian or English.
var interrogatives = map[string]bool{
	"apa": true, "apakah": true, "berapa": true, "bagaimana": true, "gimana": true,
	"kapan": true, "dimana": true, "mana": true, "siapa": true, "kenapa": true,
	"mengapa": true, "bisakah": true, "bolehkah": true, "adakah": true,
	"what": true, "how": true, "when": true, "where": true, "who": true,
	"why": true, "which": true, "can": true, "could": true, "is": true,
	"are": true, "do": true, "does": true,
}

// questionWords mark a question wherever they appear.
var questionWords = map[string]bool{
	"berapa": true, "kapan": true, "bagaimana": true, "gimana": true,
	"kenapa": true, "mengapa": true, "siapa": true,
}

// lookupCues point at live clinic data.
var lookupCues = []string{
	"jadwal", "jam praktek", "jam praktik", "praktek", "praktik", "hari apa",
	"tersedia", "available", "availability", "status", "janji temu saya",
	"appointment saya", "dokter siapa", "daftar dokter", "schedule",
}

// inquiryCues point at knowledge base content.
var inquiryCues = []string{
	"harga", "biaya", "tarif", "price", "rp", "treatment", "perawatan",
	"facial", "laser", "peeling", "apa itu", "manfaat", "efek samping",
	"prosedur", "lokasi", "alamat", "buka", "info",
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// IsQuestion reports whether text reads as a question.
func IsQuestion(text string) bool {
	if strings.Contains(text, "?") {
		return true
	}
	ws := words(text)
	if len(ws) == 0 {
		return false
	}
	if interrogatives[ws[0]] {
		return true
	}
	if len(ws) > 1 && ws[0] == "di" && ws[1] == "mana" {
		return true
	}
	for _, w := range ws {
		if questionWords[w] {
			return true
		}
	}
	return false
}

// IsShortAnswer reports whether text looks like a reply to a pending
// question: short and not itself a question.
func IsShortAnswer(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || IsQuestion(text) {
		return false
	}
	return len(strings.Fields(text)) <= maxAnswerWords && utf8.RuneCountInString(text) <= maxAnswerRunes
}

func hasCue(text string, cues []string) bool {
	lower := " " + strings.Join(words(text), " ") + " "
	for _, c := range cues {
		if strings.Contains(lower, " "+c+" ") {
			return true
		}
	}
	return false
}

// InterruptionTarget returns the handler a question raised during an active
// flow should go to. ok is false when text is not an interruption.
func InterruptionTarget(text string) (model.HandlerID, bool) {
	if !IsQuestion(text) {
		return "", false
	}
	switch {
	case hasCue(text, lookupCues):
		return model.HandlerLookup, true
	case hasCue(text, inquiryCues):
		return model.HandlerInquiry, true
	}
	return "", false
}
