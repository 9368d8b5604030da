package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Prompts holds the externally configurable prompt strings. The analysis
// prompt is a text/template body and must reference both .Context and
// .Question.
type Prompts struct {
	Persona  string `yaml:"persona"`
	Greeting string `yaml:"greeting"`
	Analysis string `yaml:"analysis"`

	analysisTemplate *template.Template
}

const defaultPersona = `You are William, a senior financial analyst working on Wall Street. You help users analyze complex corporate financial documents such as 10-K filings and earnings call transcripts. Use the doc_analysis tool to extract key insights, answer questions, and summarize relevant sections with clarity and precision. Be polite and very friendly.`

const defaultGreeting = `Hi, I am your personal Financial documents assistant, How may I help you today?`

const defaultAnalysis = `You are a senior financial analyst helping explain company earnings using information from the reference passages below, which may come from an earnings call or a 10-K filing.

Answer the question clearly and in complete sentences, using all relevant details from the passages. Your audience is not financially savvy, so break down any complex terms or concepts into simple, friendly language. If the passages do not contain enough information to answer the question, say so.

CONTEXT: {{.Context}}
QUESTION: {{.Question}}`

// LoadPrompts reads the prompt configuration from PROMPTS_CONFIG_PATH
// (default configs/prompts.yaml). A missing file falls back to the embedded
// defaults; a present but invalid file is an error.
func LoadPrompts() (*Prompts, error) {
	path := os.Getenv("PROMPTS_CONFIG_PATH")
	if path == "" {
		path = "configs/prompts.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultPrompts()
		}
		return nil, err
	}

	var prompts Prompts
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompts config %s: %w", path, err)
	}
	applyPromptDefaults(&prompts)

	if err := prompts.compile(); err != nil {
		return nil, err
	}
	return &prompts, nil
}

// DefaultPrompts returns the embedded prompt set, compiled.
func DefaultPrompts() (*Prompts, error) {
	prompts := &Prompts{}
	applyPromptDefaults(prompts)
	if err := prompts.compile(); err != nil {
		return nil, err
	}
	return prompts, nil
}

func applyPromptDefaults(prompts *Prompts) {
	if prompts.Persona == "" {
		prompts.Persona = defaultPersona
	}
	if prompts.Greeting == "" {
		prompts.Greeting = defaultGreeting
	}
	if prompts.Analysis == "" {
		prompts.Analysis = defaultAnalysis
	}
}

type analysisInput struct {
	Context  string
	Question string
}

func (p *Prompts) compile() error {
	tmpl, err := template.New("analysis").Parse(p.Analysis)
	if err != nil {
		return fmt.Errorf("failed to parse analysis prompt template: %w", err)
	}
	p.analysisTemplate = tmpl

	// Both placeholders must survive rendering, otherwise the generated
	// prompt would silently drop the context or the question.
	probe, err := render(tmpl, analysisInput{Context: "\x00context\x00", Question: "\x00question\x00"})
	if err != nil {
		return fmt.Errorf("analysis prompt template is not renderable: %w", err)
	}
	if !strings.Contains(probe, "\x00context\x00") {
		return errors.New("analysis prompt template does not reference {{.Context}}")
	}
	if !strings.Contains(probe, "\x00question\x00") {
		return errors.New("analysis prompt template does not reference {{.Question}}")
	}
	return nil
}

// RenderAnalysis builds the generation prompt from the context block and
// the raw question.
func (p *Prompts) RenderAnalysis(contextBlock, question string) (string, error) {
	if p.analysisTemplate == nil {
		if err := p.compile(); err != nil {
			return "", err
		}
	}
	return render(p.analysisTemplate, analysisInput{Context: contextBlock, Question: question})
}

func render(tmpl *template.Template, input analysisInput) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, input); err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}
	return buf.String(), nil
}
