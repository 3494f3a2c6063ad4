package sms

import "encoding/xml"

// ContentType is the Content-Type of a rendered TwiML reply.
const ContentType = "text/xml; charset=utf-8"

// MessagingResponse is the provider reply envelope: a <Response> element
// containing zero or more <Message> children. Zero messages renders an empty
// envelope, which the provider treats as "no reply" — the webhook still
// answers 200.
type MessagingResponse struct {
	XMLName  xml.Name  `xml:"Response"`
	Messages []Message `xml:"Message"`
}

// Message is a single outbound text segment.
type Message struct {
	Body string `xml:",chardata"`
}

// NewMessagingResponse builds an envelope from ordered reply segments.
// Empty segments are dropped.
func NewMessagingResponse(segments ...string) *MessagingResponse {
	r := &MessagingResponse{}
	for _, s := range segments {
		if s == "" {
			continue
		}
		r.Messages = append(r.Messages, Message{Body: s})
	}
	return r
}

// Render serializes the envelope as an XML document with the standard
// declaration. Marshaling a MessagingResponse cannot fail for string
// content, but the error is surfaced for completeness.
func (r *MessagingResponse) Render() ([]byte, error) {
	body, err := xml.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
