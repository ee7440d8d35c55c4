package service

import "fmt"

// answerPromptTemplate is the fixed prompt shape sent to the model. Context
// and question are inserted verbatim, no escaping or truncation.
const answerPromptTemplate = "Context:\n%s\n\nQuestion: %s\n\nAnswer clearly and concisely:"

func BuildPrompt(contextText, question string) string {
	return fmt.Sprintf(answerPromptTemplate, contextText, question)
}
