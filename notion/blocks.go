package notion

import (
	"regexp"
	"strings"
)

// NotionCharLimit is the character limit per rich_text element.
const NotionCharLimit = 2000

// languageAliases maps common fence languages to the names the code
// block API accepts.
var languageAliases = map[string]string{
	"js":   "javascript",
	"ts":   "typescript",
	"py":   "python",
	"rb":   "ruby",
	"sh":   "shell",
	"bash": "shell",
	"zsh":  "shell",
	"yml":  "yaml",
	"":     "plain text",
}

// Text builds a plain rich text item.
func Text(content string) RichText {
	return RichText{Type: "text", Text: &TextContent{Content: content}}
}

func styledText(content string, annotations *Annotations) RichText {
	item := Text(content)
	item.Annotations = annotations
	return item
}

// Bold, code and italic spans, tried in that order.
var inlinePattern = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__|` + "`([^`]+)`" + `|\*([^*]+)\*|_([^_]+)_`)

// ParseRichText converts markdown inline formatting (**bold**,
// __bold__, `code`, *italic*, _italic_) to a rich text array.
func ParseRichText(text string) []RichText {
	var items []RichText
	pos := 0
	for _, m := range inlinePattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > pos {
			items = append(items, Text(text[pos:m[0]]))
		}
		switch {
		case m[2] >= 0:
			items = append(items, styledText(text[m[2]:m[3]], &Annotations{Bold: true}))
		case m[4] >= 0:
			items = append(items, styledText(text[m[4]:m[5]], &Annotations{Bold: true}))
		case m[6] >= 0:
			items = append(items, styledText(text[m[6]:m[7]], &Annotations{Code: true}))
		case m[8] >= 0:
			items = append(items, styledText(text[m[8]:m[9]], &Annotations{Italic: true}))
		case m[10] >= 0:
			items = append(items, styledText(text[m[10]:m[11]], &Annotations{Italic: true}))
		}
		pos = m[1]
	}
	if pos < len(text) {
		items = append(items, Text(text[pos:]))
	}
	if len(items) == 0 {
		items = append(items, Text(text))
	}
	return items
}

// RichTextToMarkdown converts a rich text array back to a markdown
// string, rendering code, bold, italic and links.
func RichTextToMarkdown(richText []RichText) string {
	var sb strings.Builder
	for _, item := range richText {
		if item.Text == nil || item.Text.Content == "" {
			continue
		}
		content := item.Text.Content
		if item.Annotations != nil {
			if item.Annotations.Code {
				content = "`" + content + "`"
			}
			if item.Annotations.Bold {
				content = "**" + content + "**"
			}
			if item.Annotations.Italic {
				content = "*" + content + "*"
			}
		}
		if item.Text.Link != nil {
			content = "[" + content + "](" + item.Text.Link.URL + ")"
		}
		sb.WriteString(content)
	}
	return sb.String()
}

// chunkString splits s into rune chunks of at most size characters.
func chunkString(s string, size int) []string {
	runes := []rune(s)
	var chunks []string
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

// NewParagraphBlock builds a paragraph block, truncating the text to
// the per-element character limit.
func NewParagraphBlock(text string) Block {
	if runes := []rune(text); len(runes) > NotionCharLimit {
		text = string(runes[:NotionCharLimit])
	}
	return Block{
		Object:    "block",
		Type:      TypeParagraph,
		Paragraph: &RichTextData{RichText: ParseRichText(text)},
	}
}

// NewHeadingBlock builds a heading block. Levels above 3 are mapped
// to heading_3.
func NewHeadingBlock(text string, level int) Block {
	data := &RichTextData{RichText: ParseRichText(text)}
	block := Block{Object: "block"}
	switch {
	case level <= 1:
		block.Type, block.Heading1 = TypeHeading1, data
	case level == 2:
		block.Type, block.Heading2 = TypeHeading2, data
	default:
		block.Type, block.Heading3 = TypeHeading3, data
	}
	return block
}

// NewCodeBlocks builds one or more code blocks. Code longer than the
// per-element character limit is split across blocks to preserve the
// full content. Common fence aliases (py, js, ts, sh...) are mapped to
// the names the API accepts.
func NewCodeBlocks(code, language string) []Block {
	lang := strings.ToLower(language)
	if alias, ok := languageAliases[lang]; ok {
		lang = alias
	}

	var blocks []Block
	for _, chunk := range chunkString(code, NotionCharLimit) {
		blocks = append(blocks, Block{
			Object: "block",
			Type:   TypeCode,
			Code: &CodeData{
				RichText: []RichText{Text(chunk)},
				Language: lang,
			},
		})
	}
	return blocks
}

// NewBulletedListBlock builds a bulleted list item block.
func NewBulletedListBlock(text string) Block {
	return Block{
		Object:           "block",
		Type:             TypeBulletedListItem,
		BulletedListItem: &RichTextData{RichText: ParseRichText(text)},
	}
}

// NewNumberedListBlock builds a numbered list item block.
func NewNumberedListBlock(text string) Block {
	return Block{
		Object:           "block",
		Type:             TypeNumberedListItem,
		NumberedListItem: &RichTextData{RichText: ParseRichText(text)},
	}
}

// NewToDoBlock builds a checkbox item block.
func NewToDoBlock(text string, checked bool) Block {
	return Block{
		Object: "block",
		Type:   TypeToDo,
		ToDo:   &ToDoData{RichText: ParseRichText(text), Checked: checked},
	}
}

// NewDividerBlock builds a horizontal rule block.
func NewDividerBlock() Block {
	return Block{Object: "block", Type: TypeDivider, Divider: &struct{}{}}
}

// NewQuoteBlock builds a quote block.
func NewQuoteBlock(text string) Block {
	return Block{
		Object: "block",
		Type:   TypeQuote,
		Quote:  &RichTextData{RichText: ParseRichText(text)},
	}
}
