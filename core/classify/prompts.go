package classify

import (
	"fmt"
	"time"
)

const systemPrompt = "You organise notes with the PARA method (Projects, Areas, Resources, Archive). " +
	"Reply with a single JSON object and nothing else."

func classifyPrompt(text string) string {
	return fmt.Sprintf(`Analyze the following text and classify it according to the PARA method.
Your response MUST be a JSON object with three keys: "category", "title", and "tags".
1. "category": one of "Projects", "Areas", "Resources", or "Archive".
2. "title": a concise, clear title.
3. "tags": 1-3 relevant keywords as a list of strings.
Text to analyze: --- %s ---
Provide only the JSON object in your response.`, text)
}

func complexityPrompt(title string) string {
	return fmt.Sprintf(`Decide whether the following project is worth breaking down into sub-tasks.
A project is "simple" if it is a single action that can be done in one sitting, otherwise it is "complex".
Your response MUST be a JSON object with a single key "complexity" whose value is "simple" or "complex".

Project: %q

Provide only the JSON object in your response.`, title)
}

func breakdownPrompt(title string) string {
	return fmt.Sprintf(`You are a project manager. Break down the following project into a series of actionable sub-tasks.
Generate between 3 and 8 sub-tasks, in the order they should be done.
Your response MUST be a JSON object with a single key "tasks", which contains a list of strings.

Project: %q

Provide only the JSON object in your response. Example format:
{"tasks": ["First task to do", "Second task to do", "Third task to do"]}`, title)
}

func extractPrompt(text string, reference time.Time) string {
	return fmt.Sprintf(`Extract a to-do item from the following phrase.
Today is %s (%s).
Your response MUST be a JSON object with two keys:
1. "task_name": a short imperative description of the task, or null if the phrase contains no task.
2. "due_date": the due date as YYYY-MM-DD resolved against today, or null if none is mentioned.

Phrase: --- %s ---
Provide only the JSON object in your response.`, reference.Format("2006-01-02"), reference.Weekday(), text)
}
