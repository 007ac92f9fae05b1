// Package letters composes approval and posting letters and renders them to PDF.
package letters

import (
	"fmt"
	"strings"
	"time"

	"github.com/steelsid0609/training-rcf/internal/dates"
	"github.com/steelsid0609/training-rcf/internal/models"
)

// Letterhead carries the issuing organization's details
type Letterhead struct {
	OrgName    string
	OrgAddress string
	Signatory  string
	RefPrefix  string
}

// Reference builds a letter reference number such as RCF/TRG/APL/2024/1A2B3C4D
func (h Letterhead) Reference(kind string, app *models.Application, at time.Time) string {
	short := strings.ToUpper(strings.ReplaceAll(app.ID, "-", ""))
	if len(short) > 8 {
		short = short[:8]
	}
	prefix := strings.TrimSuffix(h.RefPrefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s/%d/%s", kind, at.Year(), short)
	}
	return fmt.Sprintf("%s/%s/%d/%s", prefix, kind, at.Year(), short)
}

// ApprovalFields are the values finalized by the approving operator
type ApprovalFields struct {
	Reference string
	SlotLabel string
	StartDate time.Time
	EndDate   time.Time
	IssuedAt  time.Time
	IssuedBy  string
}

// PostingFields describe one departmental posting
type PostingFields struct {
	Reference string
	Sequence  int
	Period    string
	Plant     string
	IssuedAt  time.Time
	IssuedBy  string
}

// Letter is the composed content of a single page letter
type Letter struct {
	Org       string
	Address   string
	Title     string
	Reference string
	Date      time.Time
	To        []string
	Subject   string
	Body      []string
	Signatory string
	Footer    string
}

// Text renders the letter as plain text, one block per paragraph
func (l Letter) Text() string {
	var b strings.Builder
	b.WriteString(l.Org)
	b.WriteString("\n")
	if l.Address != "" {
		b.WriteString(l.Address)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Ref: %s\n", l.Reference)
	fmt.Fprintf(&b, "Date: %s\n\n", dates.Format(l.Date))
	for _, line := range l.To {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s\n", l.Title)
	fmt.Fprintf(&b, "Subject: %s\n\n", l.Subject)
	for _, p := range l.Body {
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	b.WriteString(l.Signatory)
	b.WriteString("\n")
	if l.Footer != "" {
		b.WriteString("\n")
		b.WriteString(l.Footer)
		b.WriteString("\n")
	}
	return b.String()
}

func addressee(app *models.Application) []string {
	to := []string{app.StudentName}
	if app.Discipline != "" {
		to = append(to, app.Discipline)
	}
	if college := app.DisplayCollege(); college != "" {
		to = append(to, college)
	}
	return to
}

// ApprovalLetter composes the letter issued when an application is approved
func ApprovalLetter(head Letterhead, app *models.Application, f ApprovalFields) Letter {
	duration := dates.Describe(app.DurationValue, dates.DurationType(app.DurationType))

	body := []string{
		fmt.Sprintf("With reference to your application for %s, we are pleased to inform you that you have been "+
			"accepted for a period of %s.", app.InternshipType, duration),
		fmt.Sprintf("Your training will commence on %s and conclude on %s.",
			dates.Format(f.StartDate), dates.Format(f.EndDate)),
	}
	if f.SlotLabel != "" {
		body = append(body, fmt.Sprintf("You are enrolled in the %s batch.", f.SlotLabel))
	}
	body = append(body,
		"Please complete the payment of the training fee and upload the receipt on the portal to confirm your seat.",
	)

	return Letter{
		Org:       head.OrgName,
		Address:   head.OrgAddress,
		Title:     "APPROVAL LETTER",
		Reference: f.Reference,
		Date:      f.IssuedAt,
		To:        addressee(app),
		Subject:   fmt.Sprintf("Approval of %s", app.InternshipType),
		Body:      body,
		Signatory: head.Signatory,
		Footer:    fmt.Sprintf("Issued by %s", f.IssuedBy),
	}
}

// PostingLetter composes a departmental posting letter
func PostingLetter(head Letterhead, app *models.Application, f PostingFields) Letter {
	body := []string{
		fmt.Sprintf("You are hereby posted to %s for the period %s.", f.Plant, f.Period),
		"Report to the plant in charge on the first day of the posting with this letter and your identity card.",
	}
	if app.ActualStartDate != nil && app.ActualEndDate != nil {
		body = append(body, fmt.Sprintf("Your overall training period is %s to %s.",
			app.ActualStartDate.String(), app.ActualEndDate.String()))
	}

	return Letter{
		Org:       head.OrgName,
		Address:   head.OrgAddress,
		Title:     fmt.Sprintf("POSTING LETTER NO. %d", f.Sequence),
		Reference: f.Reference,
		Date:      f.IssuedAt,
		To:        addressee(app),
		Subject:   fmt.Sprintf("Posting to %s", f.Plant),
		Body:      body,
		Signatory: head.Signatory,
		Footer:    fmt.Sprintf("Issued by %s", f.IssuedBy),
	}
}
