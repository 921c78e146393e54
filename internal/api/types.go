package api

import (
	"fmt"
	"strings"
)

type Language string

const (
	Python Language = "python"
	C      Language = "c"
	CPP    Language = "c++"
)

// Languages lists the supported languages in the order the desk offers them.
var Languages = []Language{Python, C, CPP}

// ParseLanguage accepts the canonical names plus a few common aliases.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "python", "py":
		return Python, nil
	case "c":
		return C, nil
	case "c++", "cpp", "cxx":
		return CPP, nil
	default:
		return Language(s), fmt.Errorf("unsupported language: %q", s)
	}
}

type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeCompileFailure Outcome = "compile_failure"
	OutcomeRuntimeFailure Outcome = "runtime_failure"
	OutcomeInternalError  Outcome = "internal_error"
)

type ExecutionRequest struct {
	Language   string `json:"language"`
	SourceCode string `json:"source_code"`
}

type ExecutionResult struct {
	Output   string  `json:"output"`
	Outcome  Outcome `json:"outcome"`
	Stdout   string  `json:"stdout"`
	Stderr   string  `json:"stderr"`
	ExitCode int     `json:"exit_code"`
}

type ReviewRequest struct {
	Language   string `json:"language"`
	SourceCode string `json:"source_code"`
}

type ReviewResponse struct {
	Markup   string `json:"markup"`
	Markdown string `json:"markdown,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
