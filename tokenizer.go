package main

import (
	"fmt"
	"strings"

	tiktoken "github.com/pkoukk/tiktoken-go"
	hf "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Tokenizer counts tokens of the finished report, so users can check it fits
// the context window of the tool they feed it to.
type Tokenizer interface {
	CountTokens(text string) int
	Close()
}

// TokenizerSettings selects and configures a Tokenizer.
type TokenizerSettings struct {
	Type  string // tiktoken or huggingface
	Model string
	File  string // local tokenizer.json, huggingface only
}

const (
	defaultTiktokenModel = "gpt-4o"
	defaultHFModel       = "gpt2"
)

type tiktokenCounter struct {
	ttk *tiktoken.Tiktoken
}

func (t *tiktokenCounter) CountTokens(text string) int {
	if t.ttk == nil {
		return 0
	}
	return len(t.ttk.EncodeOrdinary(text))
}

func (t *tiktokenCounter) Close() {}

type hfCounter struct {
	htk     *hf.Tokenizer
	console *Console
}

func (h *hfCounter) CountTokens(text string) int {
	if h.htk == nil {
		return 0
	}
	en, err := h.htk.EncodeSingle(text)
	if err != nil {
		h.console.Warnf("HF tokenizer failed to encode text: %v", err)
		return 0
	}
	return len(en.Tokens)
}

func (h *hfCounter) Close() {}

// newTokenizer returns the tokenizer named by s.Type.
func newTokenizer(s TokenizerSettings, console *Console) (Tokenizer, error) {
	switch strings.ToLower(s.Type) {
	case "", "tiktoken":
		return loadTiktoken(s.Model, console)
	case "huggingface":
		return loadHuggingFace(s, console)
	default:
		return nil, fmt.Errorf("unsupported tokenizer type: %s. Use 'tiktoken' or 'huggingface'", s.Type)
	}
}

func loadTiktoken(model string, console *Console) (Tokenizer, error) {
	if model == "" {
		model = defaultTiktokenModel
	}
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		console.Warnf("tiktoken model '%s' not found, falling back to '%s': %v", model, defaultTiktokenModel, err)
		tke, err = tiktoken.EncodingForModel(defaultTiktokenModel)
		if err != nil {
			return nil, fmt.Errorf("failed to get tiktoken encoding for default model '%s': %w", defaultTiktokenModel, err)
		}
	}
	return &tiktokenCounter{ttk: tke}, nil
}

func loadHuggingFace(s TokenizerSettings, console *Console) (Tokenizer, error) {
	if s.File != "" {
		ttk, err := pretrained.FromFile(s.File)
		if err != nil {
			return nil, fmt.Errorf("failed to load tokenizer from file %s: %w", s.File, err)
		}
		return &hfCounter{htk: ttk, console: console}, nil
	}

	model := s.Model
	if model == "" {
		model = defaultHFModel
	}
	console.Infof("Loading HuggingFace tokenizer for model: %s (this may download files)", model)
	configFile, err := hf.CachedPath(model, "tokenizer.json")
	if err != nil {
		return nil, fmt.Errorf("failed to get cache path for model %s: %w", model, err)
	}
	ttk, err := pretrained.FromFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pretrained tokenizer for model %s (from %s): %w", model, configFile, err)
	}
	return &hfCounter{htk: ttk, console: console}, nil
}
