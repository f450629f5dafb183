package notion

import "encoding/json"

// Block type names used by the API.
const (
	TypeParagraph        = "paragraph"
	TypeHeading1         = "heading_1"
	TypeHeading2         = "heading_2"
	TypeHeading3         = "heading_3"
	TypeCode             = "code"
	TypeBulletedListItem = "bulleted_list_item"
	TypeNumberedListItem = "numbered_list_item"
	TypeToDo             = "to_do"
	TypeDivider          = "divider"
	TypeQuote            = "quote"
	TypeCallout          = "callout"
)

// Annotations hold the inline styling of a rich text item.
type Annotations struct {
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	Underline     bool   `json:"underline,omitempty"`
	Code          bool   `json:"code,omitempty"`
	Color         string `json:"color,omitempty"`
}

// Link is a URL attached to a text item.
type Link struct {
	URL string `json:"url"`
}

// TextContent is the text payload of a rich text item.
type TextContent struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

// RichText is one item of a rich_text array.
type RichText struct {
	Type        string       `json:"type"`
	Text        *TextContent `json:"text,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
	PlainText   string       `json:"plain_text,omitempty"`
	Href        string       `json:"href,omitempty"`
}

// RichTextData is the payload of text-only block types (paragraph,
// headings, list items, quote).
type RichTextData struct {
	RichText []RichText `json:"rich_text"`
}

// CodeData is the payload of a code block.
type CodeData struct {
	RichText []RichText `json:"rich_text"`
	Language string     `json:"language"`
}

// ToDoData is the payload of a to_do block.
type ToDoData struct {
	RichText []RichText `json:"rich_text"`
	Checked  bool       `json:"checked"`
}

// Icon is a page or callout icon.
type Icon struct {
	Type  string `json:"type,omitempty"`
	Emoji string `json:"emoji,omitempty"`
}

// CalloutData is the payload of a callout block.
type CalloutData struct {
	RichText []RichText `json:"rich_text"`
	Icon     *Icon      `json:"icon,omitempty"`
}

// Block is a Notion block. Exactly one payload field matching Type is
// set; metadata fields are empty on blocks built locally for upload.
type Block struct {
	Object         string `json:"object,omitempty"`
	ID             string `json:"id,omitempty"`
	Type           string `json:"type"`
	CreatedTime    string `json:"created_time,omitempty"`
	LastEditedTime string `json:"last_edited_time,omitempty"`
	HasChildren    bool   `json:"has_children,omitempty"`
	Archived       bool   `json:"archived,omitempty"`

	Paragraph        *RichTextData `json:"paragraph,omitempty"`
	Heading1         *RichTextData `json:"heading_1,omitempty"`
	Heading2         *RichTextData `json:"heading_2,omitempty"`
	Heading3         *RichTextData `json:"heading_3,omitempty"`
	Code             *CodeData     `json:"code,omitempty"`
	BulletedListItem *RichTextData `json:"bulleted_list_item,omitempty"`
	NumberedListItem *RichTextData `json:"numbered_list_item,omitempty"`
	ToDo             *ToDoData     `json:"to_do,omitempty"`
	Divider          *struct{}     `json:"divider,omitempty"`
	Quote            *RichTextData `json:"quote,omitempty"`
	Callout          *CalloutData  `json:"callout,omitempty"`
}

// richText returns the rich_text array of the block payload, or nil
// for types without one.
func (b *Block) richText() []RichText {
	switch b.Type {
	case TypeParagraph:
		if b.Paragraph != nil {
			return b.Paragraph.RichText
		}
	case TypeHeading1:
		if b.Heading1 != nil {
			return b.Heading1.RichText
		}
	case TypeHeading2:
		if b.Heading2 != nil {
			return b.Heading2.RichText
		}
	case TypeHeading3:
		if b.Heading3 != nil {
			return b.Heading3.RichText
		}
	case TypeCode:
		if b.Code != nil {
			return b.Code.RichText
		}
	case TypeBulletedListItem:
		if b.BulletedListItem != nil {
			return b.BulletedListItem.RichText
		}
	case TypeNumberedListItem:
		if b.NumberedListItem != nil {
			return b.NumberedListItem.RichText
		}
	case TypeToDo:
		if b.ToDo != nil {
			return b.ToDo.RichText
		}
	case TypeQuote:
		if b.Quote != nil {
			return b.Quote.RichText
		}
	case TypeCallout:
		if b.Callout != nil {
			return b.Callout.RichText
		}
	}
	return nil
}

// PartialUser identifies a user without profile details.
type PartialUser struct {
	Object string `json:"object,omitempty"`
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
}

// User is a workspace member or bot.
type User struct {
	Object    string `json:"object,omitempty"`
	ID        string `json:"id"`
	Type      string `json:"type,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Parent locates a page, database or block within the workspace.
type Parent struct {
	Type       string `json:"type,omitempty"`
	PageID     string `json:"page_id,omitempty"`
	DatabaseID string `json:"database_id,omitempty"`
	BlockID    string `json:"block_id,omitempty"`
	Workspace  bool   `json:"workspace,omitempty"`
}

// Page is a Notion page.
type Page struct {
	Object         string                     `json:"object,omitempty"`
	ID             string                     `json:"id"`
	CreatedTime    string                     `json:"created_time,omitempty"`
	LastEditedTime string                     `json:"last_edited_time,omitempty"`
	CreatedBy      *PartialUser               `json:"created_by,omitempty"`
	LastEditedBy   *PartialUser               `json:"last_edited_by,omitempty"`
	Archived       bool                       `json:"archived,omitempty"`
	InTrash        bool                       `json:"in_trash,omitempty"`
	URL            string                     `json:"url,omitempty"`
	PublicURL      string                     `json:"public_url,omitempty"`
	Parent         *Parent                    `json:"parent,omitempty"`
	Properties     map[string]json.RawMessage `json:"properties,omitempty"`
	Icon           *Icon                      `json:"icon,omitempty"`
	Cover          json.RawMessage            `json:"cover,omitempty"`
}

// Database is a Notion database.
type Database struct {
	Object         string                     `json:"object,omitempty"`
	ID             string                     `json:"id"`
	Title          []RichText                 `json:"title,omitempty"`
	Description    []RichText                 `json:"description,omitempty"`
	Parent         *Parent                    `json:"parent,omitempty"`
	IsInline       bool                       `json:"is_inline,omitempty"`
	CreatedTime    string                     `json:"created_time,omitempty"`
	LastEditedTime string                     `json:"last_edited_time,omitempty"`
	Properties     map[string]json.RawMessage `json:"properties,omitempty"`
	URL            string                     `json:"url,omitempty"`
	Archived       bool                       `json:"archived,omitempty"`
}

// Comment is a comment on a page or block.
type Comment struct {
	Object       string       `json:"object,omitempty"`
	ID           string       `json:"id"`
	Parent       *Parent      `json:"parent,omitempty"`
	DiscussionID string       `json:"discussion_id,omitempty"`
	CreatedTime  string       `json:"created_time,omitempty"`
	CreatedBy    *PartialUser `json:"created_by,omitempty"`
	RichText     []RichText   `json:"rich_text"`
}

// BlockList is a paginated block children response.
type BlockList struct {
	Object     string  `json:"object"`
	Results    []Block `json:"results"`
	NextCursor string  `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

// PageList is a paginated database query response.
type PageList struct {
	Object     string `json:"object"`
	Results    []Page `json:"results"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// UserList is a paginated users response.
type UserList struct {
	Object     string `json:"object"`
	Results    []User `json:"results"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// CommentList is a paginated comments response.
type CommentList struct {
	Object     string    `json:"object"`
	Results    []Comment `json:"results"`
	NextCursor string    `json:"next_cursor,omitempty"`
	HasMore    bool      `json:"has_more"`
}

// SearchResult is one entry of a search response, either a page or a
// database depending on Object.
type SearchResult struct {
	Object string `json:"object"`
	ID     string `json:"id"`
	URL    string `json:"url,omitempty"`
}

// SearchList is a paginated search response.
type SearchList struct {
	Object     string         `json:"object"`
	Results    []SearchResult `json:"results"`
	NextCursor string         `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

// TokenResponse is returned when creating or refreshing an OAuth
// access token.
type TokenResponse struct {
	AccessToken          string `json:"access_token"`
	TokenType            string `json:"token_type"`
	RefreshToken         string `json:"refresh_token,omitempty"`
	BotID                string `json:"bot_id,omitempty"`
	WorkspaceIcon        string `json:"workspace_icon,omitempty"`
	WorkspaceName        string `json:"workspace_name,omitempty"`
	WorkspaceID          string `json:"workspace_id,omitempty"`
	DuplicatedTemplateID string `json:"duplicated_template_id,omitempty"`
	RequestID            string `json:"request_id,omitempty"`
}

// IntrospectTokenResponse reports a token's active status and scope.
type IntrospectTokenResponse struct {
	Active    bool   `json:"active"`
	Scope     string `json:"scope,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// RevokeTokenResponse is returned when revoking a token.
type RevokeTokenResponse struct {
	RequestID string `json:"request_id,omitempty"`
}
