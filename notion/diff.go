package notion

import "context"

// appendChunkSize is the API limit on children per append call.
const appendChunkSize = 100

// BlockContent is the content-relevant projection of a block, with
// metadata like IDs and timestamps stripped, so an existing block can
// be compared against a freshly built one.
type BlockContent struct {
	Type     string
	Text     string
	Checked  bool
	Code     string
	Language string
	Emoji    string
}

// ContentOf extracts the comparable content of a block.
func ContentOf(block Block) BlockContent {
	switch block.Type {
	case TypeDivider:
		return BlockContent{Type: TypeDivider}
	case TypeParagraph, TypeHeading1, TypeHeading2, TypeHeading3,
		TypeBulletedListItem, TypeNumberedListItem:
		return BlockContent{Type: block.Type, Text: RichTextToMarkdown(block.richText())}
	case TypeToDo:
		content := BlockContent{Type: block.Type, Text: RichTextToMarkdown(block.richText())}
		if block.ToDo != nil {
			content.Checked = block.ToDo.Checked
		}
		return content
	case TypeCode:
		content := BlockContent{Type: block.Type}
		if block.Code != nil {
			content.Code = codeContent(block)
			content.Language = block.Code.Language
		}
		return content
	case TypeQuote:
		return BlockContent{Type: block.Type, Text: RichTextToMarkdown(block.richText())}
	case TypeCallout:
		content := BlockContent{Type: block.Type, Text: RichTextToMarkdown(block.richText())}
		if block.Callout != nil && block.Callout.Icon != nil {
			content.Emoji = block.Callout.Icon.Emoji
		}
		return content
	}
	return BlockContent{Type: block.Type}
}

// ContentEqual reports whether two blocks have equivalent content,
// ignoring IDs and timestamps.
func ContentEqual(existing, updated Block) bool {
	return ContentOf(existing) == ContentOf(updated)
}

// FindDivergenceIndex returns the index of the first block whose
// content differs between the two lists. When every compared block
// matches it returns the shorter length, so the matching prefix can be
// kept with its IDs and comments intact.
func FindDivergenceIndex(existing, updated []Block) int {
	n := len(existing)
	if len(updated) < n {
		n = len(updated)
	}
	for i := 0; i < n; i++ {
		if !ContentEqual(existing[i], updated[i]) {
			return i
		}
	}
	return n
}

// UpdateResult summarizes an incremental page content update.
type UpdateResult struct {
	Kept     int
	Deleted  int
	Appended int
}

// UpdatePageContent replaces a page's content with the given markdown
// while preserving the longest matching block prefix: blocks past the
// divergence point are deleted and the new suffix is appended in
// API-sized chunks.
func (c *Client) UpdatePageContent(ctx context.Context, pageID, content string) (*UpdateResult, error) {
	existing, err := c.GetAllBlockChildren(ctx, pageID, nil)
	if err != nil {
		return nil, err
	}
	updated := MarkdownToBlocks(content)

	idx := FindDivergenceIndex(existing, updated)
	result := &UpdateResult{Kept: idx}

	for _, block := range existing[idx:] {
		if err := c.DeleteBlock(ctx, block.ID); err != nil {
			return nil, err
		}
		result.Deleted++
	}

	for _, chunk := range chunkBlocks(updated[idx:], appendChunkSize) {
		if _, err := c.AppendBlockChildren(ctx, pageID, chunk); err != nil {
			return nil, err
		}
		result.Appended += len(chunk)
	}

	return result, nil
}

// ClearPageBlocks deletes every top-level block of a page and returns
// the number of blocks removed.
func (c *Client) ClearPageBlocks(ctx context.Context, pageID string) (int, error) {
	blocks, err := c.GetAllBlockChildren(ctx, pageID, nil)
	if err != nil {
		return 0, err
	}
	for i, block := range blocks {
		if err := c.DeleteBlock(ctx, block.ID); err != nil {
			return i, err
		}
	}
	return len(blocks), nil
}

func chunkBlocks(blocks []Block, size int) [][]Block {
	var chunks [][]Block
	for len(blocks) > size {
		chunks = append(chunks, blocks[:size])
		blocks = blocks[size:]
	}
	if len(blocks) > 0 {
		chunks = append(chunks, blocks)
	}
	return chunks
}
