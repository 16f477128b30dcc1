package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	netmail "net/mail"
	"net/textproto"
	"time"
)

const lineLength = 76

// BuildRaw renders msg as an RFC 5322 message suitable for SES raw sending.
func BuildRaw(msg Message, date time.Time) ([]byte, error) {
	from, err := formatAddress("from", msg.From)
	if err != nil {
		return nil, err
	}

	to, err := formatAddress("to", msg.To)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", date.Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")

	mixed := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mixed.Boundary())

	if err := writeBody(mixed, msg); err != nil {
		return nil, err
	}

	for _, a := range msg.Attachments {
		if err := writeAttachment(mixed, a); err != nil {
			return nil, fmt.Errorf("writing attachment %s: %w", a.Filename, err)
		}
	}

	if err := mixed.Close(); err != nil {
		return nil, fmt.Errorf("closing message: %w", err)
	}

	return buf.Bytes(), nil
}

// formatAddress re-encodes a single address so nothing but the address
// reaches the header.
func formatAddress(header, raw string) (string, error) {
	addr, err := netmail.ParseAddress(raw)
	if err != nil {
		return "", fmt.Errorf("invalid %s address %q: %w", header, raw, err)
	}

	return addr.String(), nil
}

func writeBody(mixed *multipart.Writer, msg Message) error {
	if msg.HTMLBody == "" {
		return writeText(mixed, "text/plain", msg.TextBody)
	}

	var alt bytes.Buffer

	altWriter := multipart.NewWriter(&alt)

	if err := writeText(altWriter, "text/plain", msg.TextBody); err != nil {
		return err
	}

	if err := writeText(altWriter, "text/html", msg.HTMLBody); err != nil {
		return err
	}

	if err := altWriter.Close(); err != nil {
		return fmt.Errorf("closing alternative part: %w", err)
	}

	h := textproto.MIMEHeader{}
	h.Set("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", altWriter.Boundary()))

	w, err := mixed.CreatePart(h)
	if err != nil {
		return fmt.Errorf("creating alternative part: %w", err)
	}

	_, err = w.Write(alt.Bytes())

	return err
}

func writeText(mw *multipart.Writer, contentType, body string) error {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType+"; charset=UTF-8")
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	w, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("creating %s part: %w", contentType, err)
	}

	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(body)); err != nil {
		return fmt.Errorf("encoding %s part: %w", contentType, err)
	}

	return qp.Close()
}

func writeAttachment(mw *multipart.Writer, a Attachment) error {
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := textproto.MIMEHeader{}
	h.Set("Content-Type", mime.FormatMediaType(contentType, map[string]string{"name": a.Filename}))
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))
	h.Set("Content-Transfer-Encoding", "base64")

	w, err := mw.CreatePart(h)
	if err != nil {
		return err
	}

	encoded := base64.StdEncoding.EncodeToString(a.Data)
	for len(encoded) > lineLength {
		if _, err := fmt.Fprintf(w, "%s\r\n", encoded[:lineLength]); err != nil {
			return err
		}

		encoded = encoded[lineLength:]
	}

	_, err = fmt.Fprintf(w, "%s\r\n", encoded)

	return err
}
