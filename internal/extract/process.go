package extract

import "localcoder/internal/prompts"

// Result is a processed model reply.
type Result struct {
	OutputType prompts.OutputType `json:"output_type"`
	Code       string             `json:"code"`  // display text
	Files      Files              `json:"files"` // named files, nil for single-file generic output
	Language   string             `json:"language"`
}

// Process turns a raw reply into code for the given output type.
func Process(t prompts.OutputType, text string) Result {
	res := Result{OutputType: t, Language: Language(t)}

	switch t {
	case prompts.HTML:
		res.Code = ExtractCode(text)
		res.Files = Files{IndexHTML: res.Code}
	case prompts.TransformersJS:
		res.Files = ParseTransformersJS(text)
		res.Code = FormatFiles(res.Files)
	case prompts.Svelte:
		res.Files = ParseSvelte(text)
		res.Code = FormatFiles(res.Files)
	default:
		res.Code = ExtractCode(text)
	}
	return res
}

// FromFiles rebuilds a result after its files were edited.
func FromFiles(t prompts.OutputType, files Files) Result {
	res := Result{OutputType: t, Language: Language(t), Files: files}
	if t == prompts.HTML {
		res.Code = files[IndexHTML]
	} else {
		res.Code = FormatFiles(files)
	}
	return res
}

// Language returns the highlighting language for an output type.
func Language(t prompts.OutputType) string {
	switch t {
	case prompts.HTML, prompts.TransformersJS:
		return "html"
	case prompts.Svelte:
		return "svelte"
	case prompts.Other:
		return ""
	}
	return t.Language()
}
