package mail

import "github.com/flosch/pongo2/v6"

var confirmationTemplate = pongo2.Must(pongo2.FromString(`
<p>Hi {{ name }}, you have created your CashTrackr account.</p>
<p>Confirm your account by visiting the following link:</p>
<a href="{{ link }}">Confirm account</a>
<p>Your confirmation code is: <b>{{ token }}</b></p>
`))

var forgotPasswordTemplate = pongo2.Must(pongo2.FromString(`
<p>Hi {{ name }}, you asked to reset your CashTrackr password.</p>
<p>Reset your password by visiting the following link:</p>
<a href="{{ link }}">Reset password</a>
<p>Your recovery code is: <b>{{ token }}</b></p>
`))
