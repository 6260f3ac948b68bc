package llm

// contextualizePrompt turns the latest question plus chat history into a
// standalone retrieval query.
const contextualizePrompt = `Given a chat history of a cross examination of a witness and the latest user question which might reference context in the chat history, formulate a standalone question which can be understood without the chat history.
Your rephrased question will be used for retrieval over the deposition transcript; rephrase it in a way that allows the retriever to provide maximum match possibility.
Do NOT answer the question.`

// witnessPromptFormat is the answer-stage system prompt; the retrieved
// transcript context is substituted in.
const witnessPromptFormat = `You are an AI assistant to help lawyers of all levels practice cross examination.
Response rules:
1. You are to respond as the witness.
2. The response should be specific to the question asked. Do not give out information not asked or offer additional information.
3. Use only the context below; if the context does not cover the question, say you do not recall.

context: %s
Answer:`

// summarizePrompt maintains a progressive summary of exchanges evicted from
// the bounded history buffer.
const summarizePrompt = `Progressively summarize the lines of a cross examination, adding onto the previous summary and returning a new summary.
Keep names, dates, times, and places exact. Be concise.`
