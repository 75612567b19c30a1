package services

import (
	"bytes"
	"html/template"

	"hirenest/application/ports"
)

// Email categories
const (
	CategoryWelcome            = "welcome"
	CategoryComment            = "comment notification"
	CategoryConnectionAccepted = "connection accepted"
)

var (
	welcomeTmpl = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #0077B5;">Welcome to HireNest!</h1>
  <p>Hello {{.Name}},</p>
  <p>We're thrilled to have you join our professional community. Start by completing your profile and connecting with colleagues.</p>
  <p><a href="{{.ProfileURL}}" style="background-color: #0077B5; color: #fff; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Complete your profile</a></p>
  <p>Best regards,<br>The HireNest Team</p>
</body>
</html>`))

	commentTmpl = template.Must(template.New("comment").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #0077B5;">New comment on your post</h1>
  <p>Hello {{.RecipientName}},</p>
  <p>{{.CommenterName}} commented on your post:</p>
  <blockquote style="border-left: 4px solid #0077B5; margin: 0; padding-left: 12px;">{{.Comment}}</blockquote>
  <p><a href="{{.PostURL}}" style="background-color: #0077B5; color: #fff; padding: 12px 24px; text-decoration: none; border-radius: 4px;">View comment</a></p>
  <p>Best regards,<br>The HireNest Team</p>
</body>
</html>`))

	acceptedTmpl = template.Must(template.New("accepted").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #0077B5;">Connection accepted</h1>
  <p>Hello {{.SenderName}},</p>
  <p><strong>{{.RecipientName}}</strong> has accepted your connection request.</p>
  <p><a href="{{.ProfileURL}}" style="background-color: #0077B5; color: #fff; padding: 12px 24px; text-decoration: none; border-radius: 4px;">View profile</a></p>
  <p>Best regards,<br>The HireNest Team</p>
</body>
</html>`))
)

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WelcomeEmail builds the message sent after signup
func WelcomeEmail(to, name, profileURL string) (ports.Email, error) {
	body, err := render(welcomeTmpl, struct{ Name, ProfileURL string }{name, profileURL})
	if err != nil {
		return ports.Email{}, err
	}
	return ports.Email{
		To:       to,
		ToName:   name,
		Subject:  "Welcome to HireNest",
		HTML:     body,
		Category: CategoryWelcome,
	}, nil
}

// CommentEmail builds the message sent to a post author about a new comment
func CommentEmail(to, recipientName, commenterName, postURL, comment string) (ports.Email, error) {
	body, err := render(commentTmpl, struct {
		RecipientName, CommenterName, PostURL, Comment string
	}{recipientName, commenterName, postURL, comment})
	if err != nil {
		return ports.Email{}, err
	}
	return ports.Email{
		To:       to,
		ToName:   recipientName,
		Subject:  "Comment on your post",
		HTML:     body,
		Category: CategoryComment,
	}, nil
}

// ConnectionAcceptedEmail builds the message sent to the requester once the
// recipient accepts. profileURL points at the accepting user.
func ConnectionAcceptedEmail(to, senderName, recipientName, profileURL string) (ports.Email, error) {
	body, err := render(acceptedTmpl, struct {
		SenderName, RecipientName, ProfileURL string
	}{senderName, recipientName, profileURL})
	if err != nil {
		return ports.Email{}, err
	}
	return ports.Email{
		To:       to,
		ToName:   senderName,
		Subject:  recipientName + " accepted your connection request",
		HTML:     body,
		Category: CategoryConnectionAccepted,
	}, nil
}
