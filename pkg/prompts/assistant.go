package prompts

import (
	"fmt"
	"strings"

	"github.com/easydayai/daisy-engine/pkg/models"
)

// PromptContext carries everything the prompt builders are allowed to see.
// The public builder must never read the profile fields.
type PromptContext struct {
	FullName     string
	BusinessName string
	Slug         string
	CurrentPage  string
	Knowledge    []models.KnowledgeEntry
}

// BuildPublicPrompt creates the system prompt for anonymous visitors.
// It contains no operator profile data and steers toward booking and pricing.
func BuildPublicPrompt(ctx *PromptContext) string {
	var prompt strings.Builder

	prompt.WriteString("You are Daisy, the assistant for Easy Day AI, a booking platform for independent service providers.\n\n")
	prompt.WriteString("You are talking to a visitor who is not signed in. Your job:\n")
	prompt.WriteString("- Answer questions about the product using the knowledge base below.\n")
	prompt.WriteString("- Encourage the visitor to book a demo or view pricing when relevant.\n")
	prompt.WriteString("- Use the navigate_internal tool to send visitors to pages like /pricing or /signup.\n")
	prompt.WriteString("- Never invent features or prices that are not in the knowledge base.\n")
	prompt.WriteString("- Keep answers short and friendly.\n\n")

	prompt.WriteString("## Knowledge Base\n\n")
	prompt.WriteString(formatKnowledge(ctx.Knowledge))
	prompt.WriteString("\n")

	if ctx.CurrentPage != "" {
		prompt.WriteString(fmt.Sprintf("\nThe visitor is currently on the page: %s\n", ctx.CurrentPage))
	}

	return prompt.String()
}

// BuildAuthPrompt creates the system prompt for a signed-in operator.
func BuildAuthPrompt(ctx *PromptContext) string {
	var prompt strings.Builder

	prompt.WriteString("You are Daisy, the assistant for Easy Day AI, a booking platform for independent service providers.\n\n")
	prompt.WriteString("You are talking to a signed-in operator. You can manage their account using the available tools:\n")
	prompt.WriteString("- Read their profile, appointment types, availability, bookings, theme, and credit balance at no cost.\n")
	prompt.WriteString("- Create or change appointment types, availability, theme, and reminders. Each change costs 1 credit.\n")
	prompt.WriteString("- Always tell the operator when an action will spend credits before confirming it.\n")
	prompt.WriteString("- Use navigate_internal to send them to the right settings page when a tool cannot do the job.\n\n")

	prompt.WriteString("## Operator\n\n")
	prompt.WriteString(fmt.Sprintf("Name: %s\n", ctx.FullName))
	prompt.WriteString(fmt.Sprintf("Business: %s\n", ctx.BusinessName))
	prompt.WriteString(fmt.Sprintf("Booking page slug: %s\n", ctx.Slug))
	if ctx.CurrentPage != "" {
		prompt.WriteString(fmt.Sprintf("Current page: %s\n", ctx.CurrentPage))
	}
	prompt.WriteString("\n## Knowledge Base\n\n")
	prompt.WriteString(formatKnowledge(ctx.Knowledge))
	prompt.WriteString("\n")

	return prompt.String()
}

// formatKnowledge renders active knowledge entries as newline-separated
// "[TOPIC]: content" blocks.
func formatKnowledge(entries []models.KnowledgeEntry) string {
	if len(entries) == 0 {
		return "No knowledge base entries are available yet.\n"
	}

	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(fmt.Sprintf("[%s]: %s\n", strings.ToUpper(entry.Topic), entry.Content))
	}
	return b.String()
}
