package service

import (
	"fmt"
	"strings"
)

// Section markers the smart analysis instruction asks the model to emit.
const (
	markerAnalysis = "ANALYSIS:"
	markerPrompt   = "DALL-E PROMPT:"
)

var recognizedMarkers = []string{markerAnalysis, markerPrompt}

// ExtractPrompt pulls the usable generation prompt out of an analysis
// response. If the prompt marker is present, the text between it and the
// next recognized marker (or end of text) is returned, trimmed. A missing
// marker degrades to the whole text, trimmed; extraction never fails.
func ExtractPrompt(analysis string) string {
	idx := strings.Index(analysis, markerPrompt)
	if idx < 0 {
		return strings.TrimSpace(analysis)
	}

	rest := analysis[idx+len(markerPrompt):]
	end := len(rest)
	for _, marker := range recognizedMarkers {
		if pos := strings.Index(rest, marker); pos >= 0 && pos < end {
			end = pos
		}
	}
	return strings.TrimSpace(rest[:end])
}

func describeInstruction(prompt string) string {
	return fmt.Sprintf("Describe and modify this image: %s", prompt)
}

func smartInstruction(prompt string) string {
	return fmt.Sprintf(
		"You are helping modify a photo while preserving its subject, composition and lighting. "+
			"Study the attached image carefully, then answer in exactly two labeled sections.\n"+
			"%s a concise description of what the image shows.\n"+
			"%s a single self-contained image generation prompt that reproduces the scene with this change applied: %s",
		markerAnalysis, markerPrompt, prompt)
}

func editInstruction(prompt string) string {
	return fmt.Sprintf(
		"Describe the attached image, then answer in exactly two labeled sections.\n"+
			"%s what the image shows and which regions the requested change affects.\n"+
			"%s a short in-painting prompt applying this change: %s",
		markerAnalysis, markerPrompt, prompt)
}

const analyzeOnlyInstruction = "Describe this image in detail: subject, composition, colors and lighting."
