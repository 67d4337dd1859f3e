// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"text/template"
)

const summarySystem = "You are an academic assistant specialized in extracting key information from research papers. " +
	"Your task is to provide concise summaries highlighting the main findings, methodology, conclusions, " +
	"and any significant insights or implications."

const summaryPrompt = "Please summarize the following text, emphasizing the main findings, methodology, " +
	"conclusions, and any notable insights or implications:\n\n"

const essaySystem = "You are an academic assistant tasked with generating a university-level academic essay " +
	"based on the summarized information provided."

// essayPromptTmpl asks for a structured essay. Every summary follows the
// instructions in order, each terminated by a blank line.
var essayPromptTmpl = template.Must(template.New("essay").Parse(`Using the following summarized information, write an essay in {{.WordCount}} words on {{.Topic}}, incorporating the provided summarized information.

In your essay, address the following aspects with appropriate headings if necessary:

1. Introduction: Introduce the topic and provide background information.

2. Main Body: Organize your discussion around the key points extracted from the summaries. Elaborate on each point, providing relevant details, examples, and arguments.

3. Analysis: Critically examine the implications of the summarized information. Consider any potential limitations, controversies, or areas for further investigation.

4. Conclusion: Summarize your main findings and arguments, highlighting the significance of the topic and suggesting potential avenues for future research.

Ensure your essay is well-structured, coherent, and academically sound.

Summarized information:

{{range .Summaries}}{{.}}

{{end}}`))

// renderEssayPrompt executes the essay template.
func renderEssayPrompt(topic string, wordCount int, summaries []string) (string, error) {
	var buf bytes.Buffer
	err := essayPromptTmpl.Execute(&buf, struct {
		Topic     string
		WordCount int
		Summaries []string
	}{topic, wordCount, summaries})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
