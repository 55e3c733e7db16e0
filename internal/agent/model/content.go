package model

import (
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
)

// Content is the body of a message: either a single text or an ordered list
// of parts.
type Content interface {
	String() string
	isContent()
}

// TextContent is a plain text body.
type TextContent string

func (c TextContent) String() string { return string(c) }
func (TextContent) isContent()       {}

// PartsContent is a multi-part body; parts are joined with a single space.
type PartsContent []string

func (c PartsContent) String() string { return strings.Join(c, " ") }
func (PartsContent) isContent()       {}

// ContentOf converts an Eino message body. It is the one rendering used both
// for replies and for stored history. A non-empty Content leads the parts.
func ContentOf(msg *schema.Message) Content {
	if msg == nil {
		return TextContent("")
	}
	if len(msg.MultiContent) == 0 {
		return TextContent(msg.Content)
	}

	parts := make(PartsContent, 0, len(msg.MultiContent)+1)
	if msg.Content != "" {
		parts = append(parts, msg.Content)
	}
	for _, p := range msg.MultiContent {
		if s := partText(p); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

func partText(p schema.ChatMessagePart) string {
	switch {
	case p.Type == schema.ChatMessagePartTypeText:
		return p.Text
	case p.Type == schema.ChatMessagePartTypeImageURL && p.ImageURL != nil:
		return p.ImageURL.URL
	case p.Type == schema.ChatMessagePartTypeAudioURL && p.AudioURL != nil:
		return p.AudioURL.URL
	case p.Type == schema.ChatMessagePartTypeVideoURL && p.VideoURL != nil:
		return p.VideoURL.URL
	case p.Type == schema.ChatMessagePartTypeFileURL && p.FileURL != nil:
		return p.FileURL.URL
	}
	out, err := sonic.MarshalString(p)
	if err != nil {
		return string(p.Type)
	}
	return out
}
