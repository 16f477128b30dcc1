// Package mail composes MIME messages and delivers them through Amazon SES.
package mail

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	From        string
	To          string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}
