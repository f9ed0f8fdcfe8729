package models

// MarkdownMessage is the body accepted by the chat webhook
type MarkdownMessage struct {
	Markdown string `json:"markdown"`
}
