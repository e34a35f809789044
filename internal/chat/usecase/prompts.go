package usecase

// Prompt templates for the language model. Filled in with fmt.Sprintf.
const (
	parseCommandPrompt = `Parse this email command into structured JSON.

Command: "%s"

Return ONLY valid JSON in this exact format:
{
  "action": "read" | "reply" | "delete" | "search" | "digest" | "categorize" | "unknown",
  "parameters": {
    "count": 5,
    "query": "",
    "sender": "",
    "subject_keywords": [],
    "email_number": null,
    "tone": "professional",
    "reply_context": ""
  }
}

Rules:
- action "read": Show/list/display emails
- action "reply": Generate/write reply
- action "delete": Remove/trash emails
- action "search": Find specific emails
- action "digest": Summary/overview of emails (daily digest, today's digest)
- action "categorize": Group/categorize/group emails into categories
- Extract numbers for "count" or "email_number"
- Extract sender names/emails for "sender"
- Extract keywords from subject mentions

JSON:`

	summarizePrompt = `Summarize this email in %d sentences or less.
Be concise and highlight the main point or action needed.

Email:
%s

Summary:`

	replyPrompt = `%s

Write a reply that is:
- Context aware (based directly on the original email content)
- Clear and professional
- Ready to send as-is (no placeholders like "[YOUR NAME]" or "[INSERT DETAILS]")
- Action-oriented where appropriate (e.g., next steps, confirmations, or follow-ups)
- Polite and concise, avoiding unnecessary repetition of the original email

Original email from %s:
%s

%s

Write only the reply body. Do not include greetings like "Dear..." or signatures.
Do not add your own sign-off/signature. Be helpful, specific, and concise.

Reply:`

	categorizePrompt = `Categorize these %d emails into appropriate categories.

Emails:
%s

Return ONLY valid JSON in this format:
{
  "urgent": ["email_id1", "email_id2"],
  "work": ["email_id3"],
  "personal": ["email_id4"],
  "promotions": ["email_id5"],
  "other": ["email_id6"]
}

Categories:
- urgent: Requires immediate attention, deadlines, important
- work: Work-related, professional correspondence
- personal: Personal messages from individuals
- promotions: Marketing, newsletters, promotional content
- other: Everything else

JSON:`

	digestPrompt = `Create a comprehensive daily email digest from these %d emails.

Emails:
%s

Include:
1. Quick overview (how many emails, general themes)
2. Key emails that need attention (list 3-5 most important)
3. Suggested actions or follow-ups
4. Any urgent matters

Format in clear sections with headers. Be concise but informative.

Digest:`
)

var toneInstructions = map[string]string{
	"professional": "Write a professional and courteous reply.",
	"friendly":     "Write a warm and friendly reply.",
	"brief":        "Write a very brief reply (1-2 sentences).",
}
