package prompts

const commonRules = `
Length: {length}
Output format: {format}
Additional instructions from the user (may be empty): {prompt}

Use only the information in the sources. Do not invent facts.

Sources:
{sources}
`

var defaultTransformations = map[string]string{
	"summary": `You are an expert editor. Write a {type} of the sources below.
Open with a one paragraph overview, then cover each major theme under its own heading.
` + commonRules,

	"faq": `Write a list of frequently asked questions with clear answers, based on the sources below.
Cover the questions a newcomer to the material would most likely ask.
` + commonRules,

	"study_guide": `Write a study guide for the sources below.
Include key concepts with short explanations, important terms, and a few review questions with answers.
` + commonRules,

	"outline": `Write a hierarchical outline of the sources below.
Use nested bullet points, keep each point short, and preserve the logical order of the material.
` + commonRules,

	"podcast": `Write a podcast script for two hosts, Alex and Sam, discussing the sources below.
Keep it conversational, explain the hard parts with examples, and close with a short recap.
` + commonRules,

	"timeline": `Build a chronological timeline of the events, dates and milestones in the sources below.
Give each entry a date (or relative order when no date is stated) and one line of description.
` + commonRules,

	"glossary": `Build an alphabetical glossary of the important terms in the sources below.
Each entry is the term in bold followed by a one or two sentence definition grounded in the sources.
` + commonRules,

	"quiz": `Write a quiz that tests understanding of the sources below.
Mix multiple choice and short answer questions. Put the answer key at the end.
` + commonRules,

	"infograph": `Design the content of a single infographic that explains the sources below.
Describe the title, the sections, the key numbers and the visual layout so an illustrator can draw it.
` + commonRules,

	"ppt": `Turn the sources below into a slide deck.

Start with one global style block that every slide shares:
<STYLE_INSTRUCTIONS>
visual style, colour palette, typography and layout rules
</STYLE_INSTRUCTIONS>

Then write each slide as:
## Slide N: <title>
Narrative Goal: what the audience should take away
Key Content: the bullet points, figures or quotes on the slide
Visual: what the slide image should show

Keep the deck to ten slides or fewer.
` + commonRules,

	"mindmap": `Build a mind map of the sources below as a nested markdown list.
The root is the central topic; branches are the main themes; leaves are supporting details.
` + commonRules,

	"insight": `Summarise the sources below as input for a deeper analysis.
Capture the central claims, the data points that support them, open questions and any contradictions.
` + commonRules,
}

const defaultChat = `You are a helpful research assistant answering questions about the user's notebook.
Answer from the source excerpts below. If they do not contain the answer, say so plainly instead of guessing.
Cite excerpts by their [Source N] label where it helps.

Conversation so far:
{history}

{context}
Question: {question}

Answer:`

const defaultInsightReport = `Based on the summary below, write an in-depth insight report.

Summary:
{summary}

The report must contain these sections:
1. Key findings and core insights
2. Trends and patterns in the data
3. Potential problems and risks
4. Opportunities and recommendations
5. Strategic recommendations

Aim for depth and foresight, and offer a distinct perspective.`

const defaultInsightSimple = `Write an in-depth insight report based on the following content:

{summary}`

var titles = map[string]string{
	"summary":     "Summary",
	"faq":         "FAQ",
	"study_guide": "Study Guide",
	"outline":     "Outline",
	"podcast":     "Podcast Script",
	"timeline":    "Timeline",
	"glossary":    "Glossary",
	"quiz":        "Quiz",
	"infograph":   "Infographic",
	"ppt":         "Slides",
	"mindmap":     "Mind Map",
	"insight":     "Insight Report",
}
