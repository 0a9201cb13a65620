// Package classifier holds the prompt template and response parser shared
// by the remote classification adapters. Both providers receive the same
// prompt and must answer in the same strict line-oriented format.
package classifier

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/cybercache/internal/core/domain"
)

// contentPreviewLimit caps how much extracted content is sent to a provider.
const contentPreviewLimit = 500

const promptTemplate = `Classify this cybersecurity resource into ONE of these categories and suggest relevant tags.

Title: %s
Description: %s
Filename: %s
URL: %s
Content Preview: %s

Categories (choose ONE):
- Blue Team (Defensive cybersecurity: SIEM, SOC, detection, monitoring, incident response, forensics)
- Red Team (Offensive cybersecurity: pentesting, exploitation, attacks, vulnerability assessment)
- Threat Intelligence (Threat intel, IOCs, APTs, threat hunting, OSINT, malware analysis)

Tags (suggest 3-5 from these or add relevant ones):
virtual-machine, cheatsheet, poster, tool, framework, guide, training, certification, documentation, research, malware, network, web-security, cloud, container, windows, linux, python, powershell

Respond ONLY in this exact format:
CATEGORY: [category name]
TAGS: tag1, tag2, tag3
CONFIDENCE: high/medium/low

Example:
CATEGORY: Red Team
TAGS: tool, pentesting, network, linux
CONFIDENCE: high`

// BuildPrompt renders the classification prompt for the given input.
func BuildPrompt(in domain.ClassifyInput) string {
	content := in.Content
	if len(content) > contentPreviewLimit {
		content = content[:contentPreviewLimit]
	}
	return fmt.Sprintf(promptTemplate, in.Title, in.Description, in.Filename, in.URL, content)
}

// ParseResponse parses the strict CATEGORY/TAGS/CONFIDENCE line format.
// A response without a CATEGORY line is malformed and fails, which causes
// the chain to fall through to the next strategy.
func ParseResponse(response string) (*domain.Classification, error) {
	result := domain.Classification{
		Confidence: domain.ConfidenceMedium,
	}

	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "CATEGORY:"):
			result.Category = strings.TrimSpace(strings.TrimPrefix(line, "CATEGORY:"))
		case strings.HasPrefix(line, "TAGS:"):
			raw := strings.TrimSpace(strings.TrimPrefix(line, "TAGS:"))
			for _, tag := range strings.Split(raw, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					result.Tags = append(result.Tags, tag)
				}
			}
		case strings.HasPrefix(line, "CONFIDENCE:"):
			result.Confidence = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "CONFIDENCE:")))
		}
	}

	if result.Category == "" {
		return nil, fmt.Errorf("malformed classification response: no category")
	}

	return &result, nil
}
