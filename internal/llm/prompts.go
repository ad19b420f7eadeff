package llm

const rewriteSystemPrompt = `You are a helpful assistant that rephrases the user's question to be a standalone question optimized for retrieval from the JEE Mains and JEE Advanced information bulletins.`

const gradeSystemPrompt = `You are a grader assessing the relevance of a retrieved document to a user question.
Only answer with 'Yes' or 'No'.

If the document contains information relevant to the user's question, respond with 'Yes'.
Otherwise, respond with 'No'.

Respond with a JSON object of the form {"score": "Yes"} or {"score": "No"}.`

const refineSystemPrompt = `You are a helpful assistant that slightly refines the user's question to improve retrieval results.
Provide a slightly adjusted version of the question.`

const answerTemplate = `Answer the question based on the following context and the Chat history.
Especially take the latest question into consideration:

Chathistory: %s
Context: %s
Question: %s

Only answer the question, don't mention in output like "Based on the context and chat history, I understand that you are asking about "`
