package ai

import "fmt"

// Fixed system prompts used across the bot. Kept in one place so the
// conversational surface stays consistent between providers.
const (
	// DefaultSystemPrompt is substituted whenever a caller supplies no
	// system prompt of its own.
	DefaultSystemPrompt = "You are a helpful assistant. Answer clearly and concisely."

	// MarketingAssistantPrompt drives open-ended chat messages.
	MarketingAssistantPrompt = "You are a marketing specialist's assistant. Answer the user's questions, " +
		"help with marketing strategy, planning and analysis. Always try to give concrete, " +
		"actionable advice. Reply in Russian."

	// ResearchAnalystPrompt drives web-search summarization.
	ResearchAnalystPrompt = "You are an experienced researcher and information analyst. Your task is to " +
		"summarize web search results and highlight the most important information."

	// IdeaGeneratorPrompt drives project idea generation.
	IdeaGeneratorPrompt = "You are an experienced marketing strategist with a track record across many " +
		"niches. Your task is to generate creative and effective ideas for marketing projects."

	// MarketAnalystPrompt drives market trend analysis.
	MarketAnalystPrompt = "You are an experienced market analyst with deep understanding of many " +
		"industries. Explain trends clearly and in detail."

	// StrategistPrompt drives marketing strategy generation.
	StrategistPrompt = "You are a marketing strategist with 20 years of experience building successful " +
		"campaigns for all kinds of businesses. Produce detailed, practical marketing strategies " +
		"that can be executed immediately."

	// CompetitorAnalystPrompt drives competitor analysis.
	CompetitorAnalystPrompt = "You are an experienced business analyst specializing in competitive analysis."
)

// ProjectIdeasPrompt builds the user prompt for marketing project idea
// generation. constraints may be empty.
func ProjectIdeasPrompt(field, goals, constraints string) string {
	prompt := fmt.Sprintf("Suggest ideas for a marketing project in the area of %s.\n\nProject goals: %s", field, goals)
	if constraints != "" {
		prompt += "\n\nConstraints: " + constraints
	}
	prompt += "\n\nPlease suggest 3-5 concrete, achievable ideas. For each idea include:\n" +
		"1. A short description\n" +
		"2. Expected results\n" +
		"3. Resources needed\n" +
		"4. Rough timeline\n" +
		"5. Risks and how to mitigate them"
	return prompt
}

// MarketTrendsPrompt builds the user prompt for industry trend analysis.
// question may be empty for a general overview.
func MarketTrendsPrompt(industry, question string) string {
	prompt := fmt.Sprintf("Analyze the current trends in the %s industry.", industry)
	if question != "" {
		prompt += "\n\nThe specific question of interest: " + question
	} else {
		prompt += "\n\nCover:\n1. The main current trends\n2. Potential business opportunities\n" +
			"3. Risks and challenges\n4. Forecasts for the next 1-2 years"
	}
	return prompt
}

// MarketingStrategyPrompt builds the user prompt for a full marketing
// strategy. budget may be empty.
func MarketingStrategyPrompt(businessType, targetAudience, goals, budget string) string {
	prompt := fmt.Sprintf("Develop a marketing strategy for %s.\n\nTarget audience: %s\nGoals: %s\n",
		businessType, targetAudience, goals)
	if budget != "" {
		prompt += "Budget: " + budget + "\n"
	}
	prompt += "\nThe strategy must include:\n" +
		"1. An executive summary\n" +
		"2. Target audience analysis\n" +
		"3. The main promotion channels\n" +
		"4. Concrete tactics for each channel\n" +
		"5. Content plan suggestions\n" +
		"6. Key metrics to track effectiveness\n" +
		"7. A rough 3-month action plan\n"
	return prompt
}

// CompetitorPrompt builds the user prompt for a competitor analysis.
func CompetitorPrompt(competitorName, industry string) string {
	return fmt.Sprintf("Run a competitive analysis of %s in the %s industry.\n\n", competitorName, industry) +
		"Please include:\n" +
		"1. A general description of the company and its positioning\n" +
		"2. Main products/services\n" +
		"3. Marketing strategies and promotion channels\n" +
		"4. Strengths and weaknesses\n" +
		"5. Opportunities to compete with this company\n"
}
