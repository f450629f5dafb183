package notion

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
)

// commentFetchConcurrency bounds parallel comment and user lookups
// during a page download.
const commentFetchConcurrency = 8

// ExportInput describes a markdown export to a database page.
type ExportInput struct {
	DatabaseID string
	Title      string
	Content    string
	// Properties are merged into the page properties next to the
	// Name title property.
	Properties map[string]any
	// Comments are added to the created page as page level comments.
	Comments []string
}

// ExportResult reports a finished export.
type ExportResult struct {
	// Count is the number of blocks created in the page.
	Count int
	// URL of the created page, empty when nothing was created.
	URL string
}

// ExportMarkdownToPage converts markdown to blocks and creates a new
// page for them in a database. Blocks past the create API limit are
// appended in follow-up calls.
func (c *Client) ExportMarkdownToPage(ctx context.Context, input ExportInput) (*ExportResult, error) {
	children := MarkdownToBlocks(input.Content)
	if len(children) == 0 {
		return &ExportResult{}, nil
	}

	properties := map[string]any{
		"Name": map[string]any{"title": []RichText{Text(input.Title)}},
	}
	for k, v := range input.Properties {
		properties[k] = v
	}

	chunks := chunkBlocks(children, appendChunkSize)
	page, err := c.CreatePage(ctx, CreatePageInput{
		Parent:     Parent{Type: "database_id", DatabaseID: input.DatabaseID},
		Properties: properties,
		Children:   chunks[0],
	})
	if err != nil {
		return nil, err
	}
	for _, chunk := range chunks[1:] {
		if _, err := c.AppendBlockChildren(ctx, page.ID, chunk); err != nil {
			return nil, err
		}
	}

	for _, text := range input.Comments {
		if _, err := c.CreatePageComment(ctx, page.ID, text); err != nil {
			return nil, err
		}
	}

	return &ExportResult{Count: len(children), URL: page.URL}, nil
}

// DownloadOptions control a page download.
type DownloadOptions struct {
	// IncludeComments resolves page level and inline block comments
	// along with their author names.
	IncludeComments bool
	// OnProgress, when non-nil, is called after each fetched page of
	// blocks with the running count and whether more remain.
	OnProgress func(fetched int, hasMore bool)
}

// DownloadPageToMarkdown writes a page's content to a local markdown
// file and returns the number of blocks converted. Inline comments are
// placed after their block and page comments in a trailing section.
func (c *Client) DownloadPageToMarkdown(ctx context.Context, pageID, outputPath string, opts DownloadOptions) (int, error) {
	blocks, err := c.GetAllBlockChildren(ctx, pageID, opts.OnProgress)
	if err != nil {
		return 0, err
	}

	var (
		blockComments map[string][]Comment
		pageComments  []Comment
	)
	if opts.IncludeComments {
		blockComments, err = c.fetchAllComments(ctx, pageID, blocks)
		if err != nil {
			return 0, err
		}
		pageComments = blockComments[pageID]
		delete(blockComments, pageID)
	}

	content := BlocksToMarkdownWithComments(blocks, blockComments)
	if len(pageComments) > 0 {
		content += "\n\n" + CommentsToMarkdown(pageComments)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, err
		}
	}
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return 0, err
	}
	return len(blocks), nil
}

// fetchAllComments fetches the comments of the page and of every block
// in parallel and resolves author names. The page's own comments are
// keyed by pageID.
func (c *Client) fetchAllComments(ctx context.Context, pageID string, blocks []Block) (map[string][]Comment, error) {
	ids := []string{pageID}
	for _, block := range blocks {
		if block.ID != "" {
			ids = append(ids, block.ID)
		}
	}

	var mu sync.Mutex
	comments := make(map[string][]Comment)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(commentFetchConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			results, err := c.ListAllComments(gctx, id)
			if err != nil {
				return err
			}
			if len(results) > 0 {
				mu.Lock()
				comments[id] = results
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := c.resolveCommentAuthors(ctx, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// resolveCommentAuthors fills in the display name of every comment
// author, fetching each unique user once.
func (c *Client) resolveCommentAuthors(ctx context.Context, comments map[string][]Comment) error {
	userIDs := make(map[string]struct{})
	for _, list := range comments {
		for _, comment := range list {
			if comment.CreatedBy != nil && comment.CreatedBy.ID != "" {
				userIDs[comment.CreatedBy.ID] = struct{}{}
			}
		}
	}
	if len(userIDs) == 0 {
		return nil
	}

	var mu sync.Mutex
	names := make(map[string]string)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(commentFetchConcurrency)
	for id := range userIDs {
		g.Go(func() error {
			user, err := c.GetUser(gctx, id)
			if err != nil {
				return err
			}
			name := user.Name
			if name == "" {
				name = id
			}
			mu.Lock()
			names[id] = name
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, list := range comments {
		for i := range list {
			if list[i].CreatedBy != nil {
				if name, ok := names[list[i].CreatedBy.ID]; ok {
					list[i].CreatedBy.Name = name
				}
			}
		}
	}
	return nil
}
