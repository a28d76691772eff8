package service

import (
	"context"
	"errors"
)

type mockAnalyzer struct {
	analysis string
	err      error

	calls           int
	lastImage       []byte
	lastInstruction string
}

func (m *mockAnalyzer) AnalyzeImage(_ context.Context, image []byte, instruction string) (string, error) {
	m.calls++
	m.lastImage = image
	m.lastInstruction = instruction
	if m.err != nil {
		return "", m.err
	}
	return m.analysis, nil
}

type mockGenerator struct {
	url string
	err error

	generateCalls  int
	editCalls      int
	variationCalls int

	lastPrompt string
	lastImage  []byte
	lastMask   []byte
}

func (m *mockGenerator) GenerateImage(_ context.Context, prompt string) (string, error) {
	m.generateCalls++
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.url, nil
}

func (m *mockGenerator) EditImage(_ context.Context, image, mask []byte, prompt string) (string, error) {
	m.editCalls++
	m.lastImage = image
	m.lastMask = mask
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.url, nil
}

func (m *mockGenerator) CreateVariation(_ context.Context, image []byte) (string, error) {
	m.variationCalls++
	m.lastImage = image
	if m.err != nil {
		return "", m.err
	}
	return m.url, nil
}

var errUpstream = errors.New("upstream exploded")
