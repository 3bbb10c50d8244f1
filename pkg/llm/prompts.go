package llm

// default system prompt for summarization
const defaultSystemPrompt = `You are a newsletter editor writing short digest entries for busy professionals.
Write directly about the content itself. NEVER use phrases like "The article discusses", "The piece covers"
or "The author explains". Start with the actual subject matter. Write plain prose without headings.
Write the summary in the same language as the article content.`

// prompt templates by prompt profile name, {title} and {text} are replaced with item values
var promptTemplates = map[string]string{
	"news": `Summarize this article for a news digest with:
- Key facts and developments
- Why this matters now
- What to expect next
Keep it factual and engaging (2-3 sentences).

Title: {title}
Article: {text}
Summary:`,

	"technical": `Summarize this article for engineers focusing on:
- Practical implications and real-world applications
- Key technical innovations or breakthroughs
- What this means for developers
Keep it concise (2-3 sentences).

Title: {title}
Article: {text}
Summary:`,

	"research": `Summarize this research for a technical audience. Focus on:
- Main findings and methodology
- Statistical significance and limitations
- Real-world applications
Be precise and accurate (3-4 sentences).

Title: {title}
Paper: {text}
Summary:`,

	"tutorial": `Summarize this tutorial so a reader can decide whether to follow it:
- What it teaches and the tools involved
- Prerequisites and the end result
Keep it practical (2-3 sentences).

Title: {title}
Article: {text}
Summary:`,

	"opinion": `Summarize this opinion piece:
- The author's main argument and position
- The strongest supporting points
Attribute the views to the author and keep a neutral tone (2-3 sentences).

Title: {title}
Article: {text}
Summary:`,

	"general": `Summarize this article capturing the key points and why they matter.
Keep it concise and engaging (2-3 sentences).

Title: {title}
Article: {text}
Summary:`,
}
