package models

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultSeparator    = "\n"
	DefaultTopK         = 4

	MergedPDFName = "merged_all_pages.pdf"

	MissingOpenAIKeyMessage = "OpenAI API Key not found. Please set the environment variable."
)

var (
	// StuffQAPromptTemplate receives all retrieved chunks at once.
	StuffQAPromptTemplate = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

{{.context}}

Question: {{.question}}
Helpful Answer:`

	AnalyzePDFPromptTemplate = "Analyze this PDF content and answer the question: %s"

	ContextSeparator = "\n\n"
)
