// Package applicant resolves the contact details signed at the bottom of email drafts.
package applicant

import (
	"errors"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/pfe-aggregator/internal/sources"
)

const (
	PlaceholderName  = "{MY_NAME}"
	PlaceholderEmail = "{MY_EMAIL}"
	PlaceholderPhone = "{MY_PHONE}"

	nameScanLines = 10
)

var (
	emailExpr  = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneExpr  = regexp.MustCompile(`\+?\d[\d\s]{7,15}`)
	letterExpr = regexp.MustCompile(`[A-Za-z]`)
)

type Contact struct {
	Name  string `mapstructure:"name" json:"name"`
	Email string `mapstructure:"email" json:"email"`
	Phone string `mapstructure:"phone" json:"phone"`
}

func (c Contact) empty() bool {
	return c.Name == "" && c.Email == "" && c.Phone == ""
}

// Resolve fills the contact field by field: configured values first, then whatever the
// CV at cvPath yields, then placeholders that stand out in the drafts.
func Resolve(configured Contact, cvPath string, extractor sources.TextExtractor, logger *zap.Logger) Contact {
	if logger == nil {
		logger = zap.NewNop()
	}

	contact := Contact{
		Name:  strings.TrimSpace(configured.Name),
		Email: strings.TrimSpace(configured.Email),
		Phone: strings.TrimSpace(configured.Phone),
	}

	if (contact.Name == "" || contact.Email == "" || contact.Phone == "") && cvPath != "" {
		parsed, err := FromCV(cvPath, extractor)
		if err != nil {
			logger.Warn("cannot read contact info from cv; drafts may use placeholders",
				zap.String("path", cvPath), zap.Error(err))
		}
		contact = merge(contact, parsed)
	}

	if contact.Name == "" || contact.Email == "" || contact.Phone == "" {
		logger.Warn("contact info incomplete; using placeholders",
			zap.Bool("name", contact.Name != ""),
			zap.Bool("email", contact.Email != ""),
			zap.Bool("phone", contact.Phone != ""),
		)
	}

	return merge(contact, Contact{Name: PlaceholderName, Email: PlaceholderEmail, Phone: PlaceholderPhone})
}

// FromCV extracts contact details from a CV document.
func FromCV(path string, extractor sources.TextExtractor) (Contact, error) {
	if _, err := os.Stat(path); err != nil {
		return Contact{}, err
	}
	if extractor == nil {
		extractor = sources.PlainText{}
	}

	text, err := extractor.Extract(path)
	if err != nil {
		return Contact{}, err
	}

	contact := Parse(text)
	if contact.empty() {
		return Contact{}, errors.New("no contact details found")
	}
	return contact, nil
}

// Parse finds the first email, a loose phone number and a name candidate: the first of
// the leading lines with two or more words and at least one letter.
func Parse(text string) Contact {
	var contact Contact

	contact.Email = emailExpr.FindString(text)
	contact.Phone = strings.TrimSpace(phoneExpr.FindString(text))

	scanned := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if scanned++; scanned > nameScanLines {
			break
		}
		if len(strings.Fields(line)) >= 2 && letterExpr.MatchString(line) {
			contact.Name = line
			break
		}
	}

	return contact
}

func merge(base, fallback Contact) Contact {
	if base.Name == "" {
		base.Name = fallback.Name
	}
	if base.Email == "" {
		base.Email = fallback.Email
	}
	if base.Phone == "" {
		base.Phone = fallback.Phone
	}
	return base
}
