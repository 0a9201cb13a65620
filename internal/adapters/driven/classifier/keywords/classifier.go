// Package keywords provides the deterministic keyword-matching classifier,
// the final tier of the classification chain. It has no external
// dependencies and never fails, so classification always produces a result
// even when no AI provider is configured or reachable.
package keywords

import (
	"context"
	"strings"

	"github.com/custodia-labs/cybercache/internal/core/domain"
	"github.com/custodia-labs/cybercache/internal/core/ports/driven"
)

// Ensure Classifier implements the interface.
var _ driven.Classifier = (*Classifier)(nil)

// categoryKeywords scores categories by substring occurrence. Slice order is
// the documented tie-break order: on equal scores the first declared
// category wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{
		category: "Blue Team",
		keywords: []string{
			"defense", "defensive", "siem", "soc", "monitoring", "detection",
			"incident response", "forensics", "blue team", "splunk", "elk",
			"security operations", "threat detection", "ids", "ips", "firewall",
			"hardening", "compliance", "audit", "defender", "edr", "xdr",
		},
	},
	{
		category: "Red Team",
		keywords: []string{
			"offensive", "penetration", "pentest", "exploit", "attack",
			"vulnerability", "metasploit", "kali", "red team", "social engineering",
			"phishing", "payload", "reverse shell", "privilege escalation",
			"lateral movement", "persistence", "evasion", "bypass", "crack",
		},
	},
	{
		category: "Threat Intelligence",
		keywords: []string{
			"intelligence", "threat intel", "apt", "indicators", "ioc",
			"threat actor", "campaign", "attribution", "malware analysis",
			"threat hunting", "osint", "reconnaissance", "mitre att&ck",
			"threat landscape", "adversary", "ttp",
		},
	},
}

// tagKeywords maps tags to trigger phrases. Slice order fixes the tag
// ordering in results.
var tagKeywords = []struct {
	tag      string
	keywords []string
}{
	{"virtual-machine", []string{"vm", "virtual machine", "virtualbox", "vmware", "ova", "ovf"}},
	{"cheatsheet", []string{"cheat sheet", "cheatsheet", "quick reference", "commands"}},
	{"poster", []string{"poster", "infographic", "visual guide", "reference card"}},
	{"tool", []string{"tool", "software", "utility", "application", "framework"}},
	{"framework", []string{"framework", "methodology", "standard", "model"}},
	{"guide", []string{"guide", "tutorial", "walkthrough", "handbook", "manual"}},
	{"training", []string{"training", "course", "learning", "education", "ctf"}},
	{"certification", []string{"certification", "cert", "exam", "qualification"}},
	{"documentation", []string{"documentation", "docs", "reference", "specification"}},
	{"research", []string{"research", "paper", "whitepaper", "study", "analysis"}},
}

// categoryTags are appended when a category was chosen.
var categoryTags = map[string]string{
	"Blue Team":           "defensive",
	"Red Team":            "offensive",
	"Threat Intelligence": "intelligence",
}

// Classifier matches keyword phrases against the lower-cased resource text.
type Classifier struct{}

// New creates a keyword classifier.
func New() *Classifier {
	return &Classifier{}
}

// Name identifies this strategy.
func (c *Classifier) Name() string {
	return domain.ClassifierKeywords
}

// Classify scores each category by counting its keyword phrases in the
// concatenated text; the strictly highest score wins, ties break to the
// first declared category. Tags are included when any of their phrases
// occur. Deterministic for identical input.
func (c *Classifier) Classify(_ context.Context, in domain.ClassifyInput) (*domain.Classification, error) {
	text := strings.ToLower(strings.Join([]string{
		in.Title, in.Description, in.Content, in.Filename, in.URL,
	}, " "))

	var (
		category  string
		bestScore int
	)
	for _, entry := range categoryKeywords {
		score := 0
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			category = entry.category
		}
	}

	var tags []string
	for _, entry := range tagKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				tags = append(tags, entry.tag)
				break
			}
		}
	}

	confidence := domain.ConfidenceLow
	if category != "" {
		confidence = domain.ConfidenceMedium
		if extra, ok := categoryTags[category]; ok {
			tags = append(tags, extra)
		}
	}

	return &domain.Classification{
		Category:   category,
		Tags:       tags,
		Confidence: confidence,
		Source:     domain.ClassifierKeywords,
	}, nil
}
