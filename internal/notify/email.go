package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"subwatch/internal/domain/channel"
)

// emailChannel delivers over SMTP with optional STARTTLS and authentication.
type emailChannel struct {
	base
}

func newEmailChannel(deps Deps, settings map[string]string) Channel {
	return &emailChannel{base: newBase(channel.KindEmail, deps, settings)}
}

func (c *emailChannel) Send(ctx context.Context, msg Message) bool {
	if !c.hasRequired("smtp_host", "smtp_port", "from_email", "to_email") {
		return c.fail(ctx, msg, "Missing required SMTP configuration")
	}

	client, err := c.connect(ctx)
	if err != nil {
		return c.fail(ctx, msg, fmt.Sprintf("SMTP error: %v", err))
	}
	defer client.Close()

	from := c.settings["from_email"]
	to := c.settings["to_email"]
	if err := client.Mail(from); err != nil {
		return c.fail(ctx, msg, fmt.Sprintf("SMTP error: %v", err))
	}
	if err := client.Rcpt(to); err != nil {
		return c.fail(ctx, msg, fmt.Sprintf("SMTP error: %v", err))
	}

	w, err := client.Data()
	if err != nil {
		return c.fail(ctx, msg, fmt.Sprintf("SMTP error: %v", err))
	}
	if _, err := w.Write(buildMIMEMessage(from, to, msg.Title, c.renderBody(msg))); err != nil {
		return c.fail(ctx, msg, fmt.Sprintf("SMTP error: %v", err))
	}
	if err := w.Close(); err != nil {
		return c.fail(ctx, msg, fmt.Sprintf("SMTP error: %v", err))
	}
	_ = client.Quit()

	c.record(ctx, msg, true, "")
	return true
}

func (c *emailChannel) Test(ctx context.Context) bool {
	if !c.hasRequired("smtp_host", "smtp_port", "from_email") {
		return false
	}

	client, err := c.connect(ctx)
	if err != nil {
		return false
	}
	defer client.Close()
	return client.Quit() == nil
}

// connect dials the SMTP server, negotiates STARTTLS unless disabled, and
// authenticates when credentials are configured.
func (c *emailChannel) connect(ctx context.Context) (*smtp.Client, error) {
	host := c.settings["smtp_host"]
	addr := net.JoinHostPort(host, c.settings["smtp_port"])

	dialer := net.Dialer{Timeout: sendTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if c.setting("use_tls", "true") != "false" {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			client.Close()
			return nil, fmt.Errorf("starttls: %w", err)
		}
	}

	username := c.settings["smtp_username"]
	password := c.settings["smtp_password"]
	if username != "" && password != "" {
		auth := smtp.PlainAuth("", username, password, host)
		if err := client.Auth(auth); err != nil {
			client.Close()
			return nil, fmt.Errorf("auth: %w", err)
		}
	}
	return client, nil
}

// buildMIMEMessage renders a multipart/alternative body with plain text and a
// minimal HTML variant.
func buildMIMEMessage(from, to, subject, body string) []byte {
	const boundary = "subwatch-alt-boundary"
	htmlBody := strings.ReplaceAll(body, "\n", "<br>")

	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&sb, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	sb.WriteString("\r\n")

	fmt.Fprintf(&sb, "--%s\r\n", boundary)
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString(body)
	sb.WriteString("\r\n")

	fmt.Fprintf(&sb, "--%s\r\n", boundary)
	sb.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&sb, "<html><body>%s</body></html>\r\n", htmlBody)

	fmt.Fprintf(&sb, "--%s--\r\n", boundary)
	return []byte(sb.String())
}
