package mail

import (
	htmltemplate "html/template"
	texttemplate "text/template"
)

func newTemplate(name, text, html string) template {
	return template{
		text: texttemplate.Must(texttemplate.New(name).Parse(text)),
		html: htmltemplate.Must(htmltemplate.New(name).Parse(html)),
	}
}

var verificationCodeTemplate = newTemplate("verification_code",
	`Your BlissBite verification code is {{.Code}}.

The code expires in 30 minutes. If you did not sign up, ignore this email.
`,
	`<p>Your BlissBite verification code is</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px">{{.Code}}</p>
<p>The code expires in 30 minutes. If you did not sign up, ignore this email.</p>
`)

var magicLinkTemplate = newTemplate("magic_link",
	`Finish creating your BlissBite account:

{{.Link}}
`,
	`<p>Finish creating your BlissBite account:</p>
<p><a href="{{.Link}}">Complete signup</a></p>
`)

var welcomeTemplate = newTemplate("welcome",
	`Welcome to BlissBite{{if .Name}}, {{.Name}}{{end}}!

Your account is ready.
`,
	`<h1>Welcome to BlissBite{{if .Name}}, {{.Name}}{{end}}!</h1>
<p>Your account is ready.</p>
`)
