package usecases

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"homework-forwarder/internal/entities"
)

// Spam gate: any of these phrases, or a bare URL, marks the message as spam
// outright. The gate runs before homework scoring and overrides it.
var spamPhrases = []string{
	"click here",
	"limited offer",
	"free trial",
	"free vpn",
	"earn money",
	"make money fast",
	"crypto giveaway",
	"investment opportunity",
	"promo code",
	"casino",
	"lottery",
	"subscribe now",
	"hot singles",
}

var urlRE = regexp.MustCompile(`(?i)\bhttps?://\S+|\bwww\.\S+|\bt\.me/\S+`)

// Homework scoring keywords. Strong terms weigh double; weak terms are
// generic action verbs that only matter in numbers.
var strongKeywords = []string{
	"homework",
	"assignment",
	"worksheet",
	"classwork",
	"essay",
	"revision",
	"syllabus",
	"deadline",
	"quiz",
	"chapter",
}

var weakKeywords = []string{
	"read",
	"write",
	"solve",
	"complete",
	"answer",
	"practice",
	"study",
	"learn",
	"memorize",
	"draw",
}

var patternHints = []string{
	"page",
	"submit",
	"due",
	"q.",
	"ex.",
	"exercise",
	"question",
}

const (
	homeworkThreshold = 3
	// Long free-form messages in this domain are empirically more likely to
	// be instructional content than short ones.
	longTextLen = 50
)

// Classify scores a message's content as spam / homework / neither. Pure and
// total: it never errors, absence of signal yields "neither". Non-text
// content defers to its caption; with no caption the caller decides policy.
func Classify(content entities.MessageContent) entities.Classification {
	return ClassifyText(content.PrimaryText())
}

// ClassifyText is the text-level classifier, also used on OCR/transcription
// output.
func ClassifyText(text string) entities.Classification {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return entities.Classification{}
	}

	for _, phrase := range spamPhrases {
		if strings.Contains(text, phrase) {
			return entities.Classification{IsSpam: true}
		}
	}
	if urlRE.MatchString(text) {
		return entities.Classification{IsSpam: true}
	}

	score := 0
	for _, kw := range strongKeywords {
		if strings.Contains(text, kw) {
			score += 2
		}
	}
	for _, kw := range weakKeywords {
		if strings.Contains(text, kw) {
			score++
		}
	}
	for _, hint := range patternHints {
		if strings.Contains(text, hint) {
			score++
		}
	}

	homework := score >= homeworkThreshold || utf8.RuneCountInString(text) > longTextLen
	return entities.Classification{IsHomework: homework, Score: score}
}
