package events

import (
	"warden/internal/application/modmail/usecases"
)

type InboundAttachmentRequest struct {
	URL         string `json:"url" binding:"required,url"`
	Filename    string `json:"filename" binding:"required,max=256"`
	ContentType string `json:"content_type" binding:"max=128"`
}

type InboundMessageRequest struct {
	Ref         string                     `json:"ref" binding:"required,snowflake"`
	AuthorID    string                     `json:"author_id" binding:"required,snowflake"`
	AuthorName  string                     `json:"author_name" binding:"max=128"`
	AuthorIcon  string                     `json:"author_icon" binding:"omitempty,url"`
	AuthorIsBot bool                       `json:"author_is_bot"`
	ChannelRef  string                     `json:"channel_ref" binding:"required,snowflake"`
	Content     string                     `json:"content" binding:"max=4000"`
	ReplyToRef  string                     `json:"reply_to_ref" binding:"omitempty,snowflake"`
	Attachments []InboundAttachmentRequest `json:"attachments" binding:"dive"`
}

func (r *InboundMessageRequest) ToMessage() usecases.InboundMessage {
	msg := usecases.InboundMessage{
		Ref:         r.Ref,
		AuthorID:    r.AuthorID,
		AuthorName:  r.AuthorName,
		AuthorIcon:  r.AuthorIcon,
		AuthorIsBot: r.AuthorIsBot,
		ChannelRef:  r.ChannelRef,
		Content:     r.Content,
		ReplyToRef:  r.ReplyToRef,
	}
	for _, a := range r.Attachments {
		msg.Attachments = append(msg.Attachments, usecases.InboundAttachment{
			URL:         a.URL,
			Filename:    a.Filename,
			ContentType: a.ContentType,
		})
	}
	return msg
}
