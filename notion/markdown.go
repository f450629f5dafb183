package notion

import (
	"regexp"
	"strings"
)

var (
	codeFencePattern      = regexp.MustCompile(`^` + "```" + `(\w*)$`)
	horizontalRulePattern = regexp.MustCompile(`^[-*_]{3,}\s*$`)
	headingPattern        = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	todoPattern           = regexp.MustCompile(`^\s*[-*]\s*\[([xX ])\]\s*(.*)$`)
	bulletPattern         = regexp.MustCompile(`^\s*[-*]\s+(.+)$`)
	numberedPattern       = regexp.MustCompile(`^\s*\d+\.\s+(.+)$`)
	quotePattern          = regexp.MustCompile(`^>\s*(.*)$`)
)

// MarkdownToBlocks converts markdown content to Notion blocks. It
// handles fenced code, headings, todo items, bulleted and numbered
// lists, horizontal rules, quotes and paragraphs; inline bold, italic
// and code are parsed into rich text annotations. The caller handles
// chunking for the append API limit.
func MarkdownToBlocks(content string) []Block {
	var blocks []Block
	lines := strings.Split(content, "\n")
	i := 0

	for i < len(lines) {
		line := lines[i]

		if m := codeFencePattern.FindStringSubmatch(line); m != nil {
			language := m[1]
			if language == "" {
				language = "plain text"
			}
			var codeLines []string
			i++
			for i < len(lines) && !strings.HasPrefix(lines[i], "```") {
				codeLines = append(codeLines, lines[i])
				i++
			}
			if code := strings.Join(codeLines, "\n"); code != "" {
				blocks = append(blocks, NewCodeBlocks(code, language)...)
			}
			i++ // closing fence
			continue
		}

		if horizontalRulePattern.MatchString(line) {
			blocks = append(blocks, NewDividerBlock())
			i++
			continue
		}

		if m := headingPattern.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, NewHeadingBlock(strings.TrimSpace(m[2]), len(m[1])))
			i++
			continue
		}

		// Todo items shadow the bullet pattern, check them first.
		if m := todoPattern.FindStringSubmatch(line); m != nil {
			checked := strings.EqualFold(m[1], "x")
			blocks = append(blocks, NewToDoBlock(strings.TrimSpace(m[2]), checked))
			i++
			continue
		}

		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, NewBulletedListBlock(strings.TrimSpace(m[1])))
			i++
			continue
		}

		if m := numberedPattern.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, NewNumberedListBlock(strings.TrimSpace(m[1])))
			i++
			continue
		}

		if m := quotePattern.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, NewQuoteBlock(m[1]))
			i++
			continue
		}

		if strings.TrimSpace(line) == "" {
			// A blank line between two quotes becomes an empty
			// paragraph so the separation survives a round trip.
			if len(blocks) > 0 && blocks[len(blocks)-1].Type == TypeQuote {
				j := i + 1
				for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
					j++
				}
				if j < len(lines) && strings.HasPrefix(lines[j], ">") {
					blocks = append(blocks, NewParagraphBlock(""))
				}
			}
			i++
			continue
		}

		// Paragraph: join consecutive plain lines until a blank line
		// or another block construct starts.
		paraLines := []string{line}
		i++
		for i < len(lines) {
			next := lines[i]
			if strings.TrimSpace(next) == "" ||
				strings.HasPrefix(next, "#") ||
				strings.HasPrefix(next, "```") ||
				strings.HasPrefix(next, ">") ||
				horizontalRulePattern.MatchString(next) ||
				todoPattern.MatchString(next) ||
				bulletPattern.MatchString(next) ||
				numberedPattern.MatchString(next) {
				break
			}
			paraLines = append(paraLines, next)
			i++
		}

		for k, ln := range paraLines {
			paraLines[k] = strings.TrimSpace(ln)
		}
		paraText := strings.Join(paraLines, " ")
		if paraText != "" {
			for _, chunk := range chunkString(paraText, NotionCharLimit) {
				blocks = append(blocks, NewParagraphBlock(chunk))
			}
		}
	}

	return blocks
}

// blockToMarkdown renders a single block. The second return value is
// false for unsupported block types.
func blockToMarkdown(block Block) (string, bool) {
	switch block.Type {
	case TypeParagraph:
		return RichTextToMarkdown(block.richText()), true
	case TypeHeading1:
		return "# " + RichTextToMarkdown(block.richText()), true
	case TypeHeading2:
		return "## " + RichTextToMarkdown(block.richText()), true
	case TypeHeading3:
		return "### " + RichTextToMarkdown(block.richText()), true
	case TypeCode:
		if block.Code == nil {
			return "", false
		}
		language := block.Code.Language
		if language == "plain text" {
			language = ""
		}
		return "```" + language + "\n" + codeContent(block) + "\n```", true
	case TypeBulletedListItem:
		return "- " + RichTextToMarkdown(block.richText()), true
	case TypeNumberedListItem:
		return "1. " + RichTextToMarkdown(block.richText()), true
	case TypeToDo:
		checkbox := "[ ]"
		if block.ToDo != nil && block.ToDo.Checked {
			checkbox = "[x]"
		}
		return "- " + checkbox + " " + RichTextToMarkdown(block.richText()), true
	case TypeDivider:
		return "---", true
	case TypeQuote:
		return "> " + RichTextToMarkdown(block.richText()), true
	case TypeCallout:
		prefix := ""
		if block.Callout != nil && block.Callout.Icon != nil && block.Callout.Icon.Emoji != "" {
			prefix = block.Callout.Icon.Emoji + " "
		}
		return "> " + prefix + RichTextToMarkdown(block.richText()), true
	}
	return "", false
}

// codeContent joins the raw text of a code block without inline
// formatting.
func codeContent(block Block) string {
	var sb strings.Builder
	for _, item := range block.Code.RichText {
		if item.Text != nil {
			sb.WriteString(item.Text.Content)
		}
	}
	return sb.String()
}

// BlocksToMarkdown converts blocks to markdown content. Unsupported
// block types are skipped.
func BlocksToMarkdown(blocks []Block) string {
	return BlocksToMarkdownWithComments(blocks, nil)
}

// BlocksToMarkdownWithComments converts blocks to markdown, inserting
// the comments of each block (keyed by block ID) right after it.
func BlocksToMarkdownWithComments(blocks []Block, blockComments map[string][]Comment) string {
	var sb strings.Builder
	prevType := ""

	for _, block := range blocks {
		line, ok := blockToMarkdown(block)
		if !ok {
			continue
		}
		// An empty paragraph is a separator, it resets quote joining.
		if block.Type == TypeParagraph && line == "" {
			prevType = ""
			continue
		}
		switch {
		case prevType == TypeQuote && block.Type == TypeQuote:
			sb.WriteString("\n" + line)
		case sb.Len() > 0:
			sb.WriteString("\n\n" + line)
		default:
			sb.WriteString(line)
		}
		prevType = block.Type

		if block.ID != "" {
			for _, comment := range blockComments[block.ID] {
				sb.WriteString("\n\n" + inlineCommentToMarkdown(comment))
				prevType = ""
			}
		}
	}

	return sb.String()
}

func commentHeader(comment Comment) string {
	author := "Unknown"
	if comment.CreatedBy != nil {
		if comment.CreatedBy.Name != "" {
			author = comment.CreatedBy.Name
		} else if comment.CreatedBy.ID != "" {
			author = comment.CreatedBy.ID
		}
	}
	header := "**" + author + "**"
	// 2024-01-15T10:30:00.000Z -> 2024-01-15 10:30
	if t := comment.CreatedTime; len(t) >= 16 {
		header += " - " + strings.Replace(t[:16], "T", " ", 1)
	}
	return header
}

func inlineCommentToMarkdown(comment Comment) string {
	return "> 💬 " + commentHeader(comment) + ": " + RichTextToMarkdown(comment.RichText)
}

// CommentsToMarkdown renders page level comments as a trailing
// "## Comments" section of blockquotes with author and timestamp.
func CommentsToMarkdown(comments []Comment) string {
	if len(comments) == 0 {
		return ""
	}

	lines := []string{"## Comments", ""}
	for _, comment := range comments {
		lines = append(lines,
			"> "+commentHeader(comment),
			"> "+RichTextToMarkdown(comment.RichText),
			"")
	}
	return strings.Join(lines, "\n")
}

// StripComments removes comment blockquotes ("> 💬") from markdown, so
// content downloaded with comments can be re-uploaded without turning
// them into quote blocks.
func StripComments(content string) string {
	var kept []string
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "> 💬") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
