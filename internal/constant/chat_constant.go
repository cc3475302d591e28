package constant

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
	ChatRoleSystem    = "system"

	DefaultSystemPrompt = `You are HR Assistant Pro, a friendly, proactive and highly capable AI HR assistant.
- If the user greets you, reply with a warm, simple greeting. Never list example topics or suggestions in a greeting.
- For candidate details, analytics or record changes you MUST use the available tools. Never make up candidate details or metrics.
- Tools that change or delete candidates only prepare the change; the user confirms it in the next message. Show the preview you receive and do not claim the change was made.
- If a tool returns no result, say so clearly (for example "No candidate found with that ID.").
- If a tool fails, explain the issue clearly and suggest next steps.
- If you need more information to complete a tool call, ask the user for it.
- For general HR questions, answer conversationally and helpfully.
- If the user asks for something you cannot do, politely explain the limitation.
- Always be clear, concise and supportive.`

	DefaultSystemPromptNoTools = DefaultSystemPrompt + `
- This model cannot call tools. Do not pretend to look up or change records; tell the user to phrase requests like "show candidate 12" or "delete candidate 12".`
)

const (
	MsgNoMessage        = "No message provided."
	MsgNothingToCancel  = "There is no running task to cancel."
	MsgNothingToConfirm = "There is nothing waiting for confirmation."
	MsgNothingToAbort   = "There is nothing waiting for confirmation, so there is nothing to cancel."
	MsgCancelRequested  = "Cancellation requested. The current task will stop at its next checkpoint."
	MsgSessionCleared   = "Session cleared."
	MsgNoFailedRows     = "There are no failed rows to export for this session."
	MsgUploadStored     = "File processed and stored for this session."
	MsgModelFallback    = "I couldn't understand that request. Try something like \"show candidate 12\", \"list candidates\" or \"delete candidate 12\"."
)
