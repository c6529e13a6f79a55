package email

import "regexp"

var emailFormat = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// popularDomains is checked in order; the first domain within typo distance
// wins the suggestion.
var popularDomains = []string{
	"gmail.com",
	"yahoo.com",
	"hotmail.com",
	"outlook.com",
	"aol.com",
	"icloud.com",
}

var defaultDisposableDomains = []string{
	"mailinator.com",
	"guerrillamail.com",
	"10minutemail.com",
	"tempmail.com",
	"temp-mail.org",
	"throwaway.email",
	"yopmail.com",
	"getnada.com",
	"sharklasers.com",
	"trashmail.com",
}
