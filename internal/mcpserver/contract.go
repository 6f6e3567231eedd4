package mcpserver

// FormFormatContract describes the text form of a week's editable fields
// that LLM consumers should follow when calling update_week.
const FormFormatContract = `# Weekboard Week Form Contract

A week has a fixed number ("01".."16") and badge that cannot be edited, and
five editable fields. Tags and links are edited as plain text lines.

## Fields

| Field       | Type   | Notes                                  |
|-------------|--------|----------------------------------------|
| title       | string | Shown on the card                      |
| subtitle    | string | Optional, hidden when empty            |
| description | string | Optional, hidden when empty            |
| tags        | string | Comma-separated list                   |
| links       | string | One link per line: ` + "`text|url|type`" + ` |

## Rules

1. **Every update replaces all five fields.** Send the current value of any
   field you do not want to clear. Use get_week_form to fetch it.
2. **Tags** are split on ` + "`,`" + `; whitespace around each tag is trimmed and
   empty entries are dropped. Order is kept. A tag cannot contain a comma.
3. **Links** are split on newlines; blank lines are ignored. Each line is split
   on ` + "`|`" + ` and every part is trimmed.
   - At least ` + "`text|url`" + ` is required; lines with fewer parts are dropped silently.
   - The third part is the link type. Empty or missing means ` + "`link`" + `.
   - Text and URL cannot contain ` + "`|`" + ` or a newline.
4. **Positions** are zero-based: the week numbered "01" is index 0.
5. **Resetting** a week (reset_week with confirm=true) restores the default
   title and clears every other editable field. It cannot be undone.

## Example

` + "```" + `json
{
  "index": 2,
  "title": "Concurrency",
  "subtitle": "Goroutines and channels",
  "description": "Fan-out, fan-in and cancellation.",
  "tags": "go, concurrency",
  "links": "Slides|https://example.com/slides.pdf|pdf\nTalk|https://example.com/talk|video"
}
` + "```" + `
`
