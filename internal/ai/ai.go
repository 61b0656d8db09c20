package ai

import (
	"context"
	"fmt"
	"strings"
)

// Task selects the instruction sent alongside an image.
type Task int

const (
	TaskCaption Task = iota
	TaskCode
	TaskFormula
)

func (t Task) String() string {
	switch t {
	case TaskCode:
		return "code"
	case TaskFormula:
		return "formula"
	default:
		return "caption"
	}
}

// ParseTask maps a flag or config value onto a Task.
func ParseTask(s string) (Task, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "caption", "image", "picture":
		return TaskCaption, nil
	case "code":
		return TaskCode, nil
	case "formula", "latex", "math":
		return TaskFormula, nil
	}
	return TaskCaption, fmt.Errorf("unknown task %q (want caption|code|formula)", s)
}

type Request struct {
	Image    []byte
	MIMEType string
	// Context is text found on top of the image region. Optional.
	Context string
	Task    Task
}

// Describer turns an image into text. An empty result means no caption is
// available; implementations never fail the caller.
type Describer interface {
	Describe(ctx context.Context, req Request) string
}

type Noop struct{}

func (Noop) Describe(ctx context.Context, req Request) string { return "" }

// Backend is a single captioning service. Model selects the backend-specific
// model for one call.
type Backend interface {
	Name() string
	Generate(ctx context.Context, model, prompt string, image []byte, mimeType string) (string, error)
}

const systemInstruction = "You are an assistant that captions PDF figures and diagrams."

// Prompt builds the instruction for a task.
func Prompt(task Task, context string) string {
	switch task {
	case TaskFormula:
		return "Extract the formulae as LaTeX without commentary."
	case TaskCode:
		return "Extract the code shown in this image verbatim. Return it in a single fenced code block tagged with its language, without commentary."
	}
	p := "Please provide a concise description of this image."
	if context = strings.TrimSpace(context); context != "" {
		p += "\n\nContext text to guide you: " + context
	}
	return p
}

// SplitCodeLanguage strips a surrounding ```lang fence from a code extraction
// result and reports the language tag, if any.
func SplitCodeLanguage(out string) (code, lang string) {
	s := strings.TrimSpace(out)
	if !strings.HasPrefix(s, "```") {
		return s, ""
	}
	first := strings.Index(s, "\n")
	if first == -1 {
		return strings.Trim(s, "`"), ""
	}
	lang = strings.TrimSpace(strings.TrimPrefix(s[:first], "```"))
	s = s[first+1:]
	s = strings.TrimSuffix(strings.TrimRight(s, " \t\n"), "```")
	return strings.TrimRight(s, " \t\n"), lang
}

func mimeOrDefault(mt string) string {
	if mt == "" {
		return "image/png"
	}
	return mt
}
