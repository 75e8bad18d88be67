package workflow

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Rishi-choudhary/PARA-AI/core/domain"
)

// User-facing text. Everything is rendered as Telegram HTML, so every value
// interpolated here goes through esc or link.

const (
	msgClassifyFailed = "Sorry, I had trouble understanding that."
	msgQueryFailed    = "Sorry, I couldn't search right now."
	msgStale          = "That action has expired. Please restart this action."
	msgNothingPending = "Nothing to cancel."
	msgCancelled      = "Okay, cancelled."

	msgBreakdownFailed  = "Couldn't break it down. Adding project without tasks."
	msgAddingPlain      = "Okay, adding project without sub-tasks..."
	msgAddingWithTasks  = "Adding project and tasks..."
	msgProjectFailed    = "❌ Couldn't add project."
	msgArchiving        = "Archiving page..."
	msgArchiveCancelled = "Archive operation cancelled."
	msgArchiveFailed    = "❌ Couldn't archive the page. Nothing was changed."
	msgArchiveUsage     = "Please provide a title to archive.\nUsage: /archive &lt;exact page title&gt;"
	msgTaskUsage        = "Tell me what needs doing.\nUsage: /task &lt;task, optionally with a due date&gt;"
	msgTaskNotFound     = "Sorry, I couldn't find a task in that."
	msgTaskFailed       = "❌ Couldn't add task."
	msgSearchUsage      = "Usage: /search &lt;words to look for&gt;"
	msgSummaryDisabled  = "The daily summary isn't set up."
	msgSummaryFailed    = "Sorry, I couldn't build the summary right now."
	labelBreakdownYes   = "👍 Yes, break it down"
	labelBreakdownNo    = "👎 No, just add it"
	labelApproveTasks   = "👍 Add them"
	labelRejectTasks    = "👎 Add without tasks"
	labelConfirmArchive = "✅ Yes, archive it"
	labelCancelArchive  = "❌ Cancel"
)

func esc(s string) string {
	return html.EscapeString(s)
}

func link(url, text string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, esc(url), esc(text))
}

func msgGreeting(name string) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hi %s! I'm your PARA-method assistant. "+
		"Send me text, links, photos, or files to organize them in Notion.\n\n"+
		"/task &lt;phrase&gt; adds a to-do\n"+
		"/archive &lt;title&gt; moves a page to the Archive\n"+
		"/search &lt;words&gt; finds pages\n"+
		"/summary shows what you captured today\n"+
		"/cancel drops a pending question", esc(name))
}

func msgAdded(bucket domain.Bucket, url, title string) string {
	return fmt.Sprintf("✅ Added to <b>%s</b>: %s", esc(bucket.String()), link(url, title))
}

func msgAddFailed(bucket domain.Bucket) string {
	return fmt.Sprintf("❌ Couldn't add this to <b>%s</b>.", esc(bucket.String()))
}

func msgProjectQuestion(title string) string {
	return fmt.Sprintf("Project identified: <b>'%s'</b>.\nBreak it down into tasks?", esc(title))
}

func msgBreakingDown(title string) string {
	return fmt.Sprintf("Breaking down '%s'...", esc(title))
}

func msgTaskList(title string, tasks []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Sub-tasks for <b>'%s'</b>:\n\n", esc(title))
	for _, task := range tasks {
		fmt.Fprintf(&sb, "• %s\n", esc(task))
	}
	sb.WriteString("\nAdd them to the page?")
	return sb.String()
}

func msgProjectAdded(url, title string, withTasks bool) string {
	if withTasks {
		return "✅ Project and tasks added!\n\n" + link(url, title)
	}
	return "✅ Project added!\n\n" + link(url, title)
}

func msgLinkSaved(url, target string) string {
	return "✅ Saved link: " + link(url, target)
}

func msgLinkFailed() string {
	return "❌ Couldn't save link."
}

func msgMediaSaved(kind MediaKind, url, title string) string {
	return fmt.Sprintf("✅ Saved %s: %s", kind, link(url, title))
}

func msgMediaFailed(kind MediaKind) string {
	return fmt.Sprintf("❌ Couldn't save %s.", kind)
}

func msgTaskAdded(url, name string, due *time.Time) string {
	out := "✅ Task added: " + link(url, name)
	if due != nil {
		out += fmt.Sprintf(" (due %s)", due.Format("Mon, 2 Jan 2006"))
	}
	return out
}

func msgSearchingArchive(title string) string {
	return fmt.Sprintf("Searching for '%s' to archive...", esc(title))
}

func msgArchiveQuestion(bucket domain.Bucket, url, title string) string {
	return fmt.Sprintf("Found page in <b>%s</b>: %s\n\nAre you sure you want to move it to the archive?",
		esc(bucket.String()), link(url, title))
}

func msgArchiveNotFound(title string) string {
	return fmt.Sprintf("Sorry, I couldn't find a page with the exact title '%s'.", esc(title))
}

func msgArchived(url, title string) string {
	return "✅ Successfully moved to Archive.\n\n" + link(url, title)
}

func msgArchivePartial(copyURL, originalURL, title string) string {
	return fmt.Sprintf("⚠️ The archive copy was created (%s), but the original page couldn't be marked archived. "+
		"Please remove %s by hand.", link(copyURL, "copy"), link(originalURL, title))
}

func msgSearchResults(query string, hits []domain.SearchHit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("No pages match '%s'.", esc(query))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔎 Results for '%s':\n", esc(query))
	for _, h := range hits {
		fmt.Fprintf(&sb, "\n• %s", link(h.URL, h.Title))
	}
	return sb.String()
}

func msgUnknownCommand(name string) string {
	return fmt.Sprintf("Sorry, I don't know /%s. Send /start to see what I can do.", esc(name))
}
