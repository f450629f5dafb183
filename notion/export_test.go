package notion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportMarkdownToPage(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	result, err := client.ExportMarkdownToPage(ctx, ExportInput{
		DatabaseID: "db-1",
		Title:      "Report",
		Content:    "# Report\n\nAll good.",
		Comments:   []string{"generated automatically"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Contains(t, result.URL, "https://notion.so/")

	list, err := client.QueryDatabase(ctx, "db-1", QueryDatabaseInput{})
	require.NoError(t, err)
	require.Len(t, list.Results, 1)

	pageID := list.Results[0].ID
	assert.Len(t, fake.children[pageID], 2)

	comments, err := client.ListAllComments(ctx, pageID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "generated automatically", RichTextToMarkdown(comments[0].RichText))
}

func TestExportMarkdownToPageEmpty(t *testing.T) {
	client, _ := newTestClient(t)

	result, err := client.ExportMarkdownToPage(context.Background(), ExportInput{
		DatabaseID: "db-1",
		Title:      "Empty",
		Content:    "   \n\n  ",
	})
	require.NoError(t, err)
	assert.Equal(t, &ExportResult{}, result)
}

func TestExportMarkdownToPageChunksChildren(t *testing.T) {
	client, fake := newTestClient(t)

	content := ""
	for i := 0; i < appendChunkSize+20; i++ {
		content += "a paragraph\n\n"
	}

	result, err := client.ExportMarkdownToPage(context.Background(), ExportInput{
		DatabaseID: "db-1",
		Title:      "Long",
		Content:    content,
	})
	require.NoError(t, err)
	assert.Equal(t, appendChunkSize+20, result.Count)

	for _, blocks := range fake.children {
		assert.Len(t, blocks, appendChunkSize+20)
	}
}

func TestDownloadPageToMarkdown(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	page, err := client.CreatePage(ctx, CreatePageInput{
		Parent:     Parent{Type: "database_id", DatabaseID: "db-1"},
		Properties: map[string]any{},
		Children:   MarkdownToBlocks("# Title\n\nbody text"),
	})
	require.NoError(t, err)

	blocks, err := client.GetAllBlockChildren(ctx, page.ID, nil)
	require.NoError(t, err)

	// One inline comment on the body block, one page level comment.
	_, err = client.CreateComment(ctx, Parent{Type: "block_id", BlockID: blocks[1].ID}, []RichText{Text("inline note")})
	require.NoError(t, err)
	_, err = client.CreatePageComment(ctx, page.ID, "page note")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "page.md")
	var progress []int
	count, err := client.DownloadPageToMarkdown(ctx, page.ID, path, DownloadOptions{
		IncludeComments: true,
		OnProgress:      func(fetched int, hasMore bool) { progress = append(progress, fetched) },
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []int{2}, progress)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)

	assert.Contains(t, content, "# Title")
	assert.Contains(t, content, "body text\n\n> 💬 **Alice** - 2024-01-15 10:30: inline note")
	assert.Contains(t, content, "## Comments")
	assert.Contains(t, content, "> page note")
}

func TestDownloadPageToMarkdownWithoutComments(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	page, err := client.CreatePage(ctx, CreatePageInput{
		Parent:     Parent{Type: "database_id", DatabaseID: "db-1"},
		Properties: map[string]any{},
		Children:   MarkdownToBlocks("plain content"),
	})
	require.NoError(t, err)

	_, err = client.CreatePageComment(ctx, page.ID, "ignored")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "page.md")
	count, err := client.DownloadPageToMarkdown(ctx, page.ID, path, DownloadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "plain content", string(raw))
}
