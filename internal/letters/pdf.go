package letters

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/go-pdf/fpdf"
	"github.com/steelsid0609/training-rcf/internal/dates"
	"github.com/steelsid0609/training-rcf/internal/models"
)

// ErrOverflow is returned when a letter's content does not fit on one page
var ErrOverflow = errors.New("letter does not fit on one page")

// Font is a TrueType family used instead of the core Helvetica font.
// Core fonts only cover cp1252; names in other scripts need a UTF-8 font
// whose glyphs cover them. Complex scripts are not shaped.
type Font struct {
	Regular []byte
	Bold    []byte
}

// LoadFont reads TrueType files. An empty bold path reuses the regular face.
func LoadFont(regularPath, boldPath string) (*Font, error) {
	regular, err := os.ReadFile(regularPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read letter font: %w", err)
	}
	f := &Font{Regular: regular, Bold: regular}
	if boldPath != "" {
		if f.Bold, err = os.ReadFile(boldPath); err != nil {
			return nil, fmt.Errorf("failed to read bold letter font: %w", err)
		}
	}
	return f, nil
}

// Renderer produces single page PDF letters
type Renderer struct {
	Head Letterhead
	Font *Font
}

// NewRenderer creates a renderer for the given letterhead
func NewRenderer(head Letterhead) *Renderer {
	return &Renderer{Head: head}
}

// WithFont sets the TrueType font used for letter text
func (r *Renderer) WithFont(f *Font) *Renderer {
	r.Font = f
	return r
}

// RenderApproval renders the approval letter for app
func (r *Renderer) RenderApproval(app *models.Application, f ApprovalFields) ([]byte, error) {
	return render(ApprovalLetter(r.Head, app, f), r.Font)
}

// RenderPosting renders a posting letter for app
func (r *Renderer) RenderPosting(app *models.Application, f PostingFields) ([]byte, error) {
	return render(PostingLetter(r.Head, app, f), r.Font)
}

// Render lays l out on a single A4 page with the core fonts
func Render(l Letter) ([]byte, error) {
	return render(l, nil)
}

const (
	margin       = 20.0
	footerOffset = 25.0
)

func render(l Letter, font *Font) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(l.Title, true)
	pdf.SetAuthor(l.Org, true)
	pdf.SetCreationDate(l.Date)
	pdf.SetModificationDate(l.Date)
	pdf.SetCatalogSort(true)
	pdf.SetMargins(margin, margin, margin)
	// overflow is detected below rather than paginated
	pdf.SetAutoPageBreak(false, margin)

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	italic := "I"
	if font != nil {
		family = "letter"
		pdf.AddUTF8FontFromBytes(family, "", font.Regular)
		pdf.AddUTF8FontFromBytes(family, "B", font.Bold)
		tr = func(s string) string { return s }
		italic = ""
	}
	pdf.AddPage()

	width, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	text := width - left - right

	pdf.SetFont(family, "B", 16)
	pdf.CellFormat(text, 8, tr(l.Org), "", 1, "C", false, 0, "")
	if l.Address != "" {
		pdf.SetFont(family, "", 10)
		pdf.CellFormat(text, 5, tr(l.Address), "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)
	y := pdf.GetY()
	pdf.Line(left, y, width-right, y)
	pdf.Ln(6)

	pdf.SetFont(family, "", 10)
	pdf.CellFormat(text/2, 5, tr("Ref: "+l.Reference), "", 0, "L", false, 0, "")
	pdf.CellFormat(text/2, 5, "Date: "+dates.Format(l.Date), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(family, "", 11)
	for _, line := range l.To {
		pdf.CellFormat(text, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont(family, "B", 13)
	pdf.CellFormat(text, 7, tr(l.Title), "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont(family, "B", 11)
	pdf.MultiCell(text, 5, tr("Subject: "+l.Subject), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont(family, "", 11)
	for _, p := range l.Body {
		pdf.MultiCell(text, 6, tr(p), "", "J", false)
		pdf.Ln(3)
	}

	pdf.Ln(12)
	pdf.CellFormat(text, 5, tr(l.Signatory), "", 1, "R", false, 0, "")

	_, height := pdf.GetPageSize()
	limit := height - margin
	if l.Footer != "" {
		limit = height - footerOffset
	}
	if pdf.GetY() > limit {
		return nil, fmt.Errorf("letter %q: %w", l.Reference, ErrOverflow)
	}

	if l.Footer != "" {
		pdf.SetFont(family, italic, 8)
		pdf.SetY(height - footerOffset)
		pdf.CellFormat(text, 4, tr(l.Footer), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render letter %q: %w", l.Reference, err)
	}
	return buf.Bytes(), nil
}
