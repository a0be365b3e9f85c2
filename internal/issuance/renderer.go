package issuance

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"tixify/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
)

// TicketDocument 產生票券 PDF 所需的資料
type TicketDocument struct {
	Event  *model.Event
	Tier   *model.TicketTier
	Ticket *model.Ticket
}

type Renderer struct {
	qrSize int
}

func NewRenderer(qrSize int) *Renderer {
	if qrSize <= 0 {
		qrSize = 512
	}
	return &Renderer{qrSize: qrSize}
}

// QRCode encodes the signed payload as a PNG.
func (r *Renderer) QRCode(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, r.qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

var defaultBrandColor = [3]int{17, 24, 39}

// parseHexColor accepts "#rrggbb" or "rrggbb".
func parseHexColor(s string) ([3]int, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return [3]int{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return [3]int{}, false
	}
	return [3]int{int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)}, true
}

func (r *Renderer) PDF(doc TicketDocument) ([]byte, error) {
	if doc.Event == nil || doc.Ticket == nil {
		return nil, fmt.Errorf("render ticket: missing event or ticket")
	}

	png, err := r.QRCode(doc.Ticket.QRCode)
	if err != nil {
		return nil, err
	}

	color := defaultBrandColor
	if doc.Event.PrimaryColor != nil {
		if c, ok := parseHexColor(*doc.Event.PrimaryColor); ok {
			color = c
		}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(doc.Event.Name, true)
	pdf.AddPage()

	// 主色橫幅
	pdf.SetFillColor(color[0], color[1], color[2])
	pdf.Rect(0, 0, 210, 32, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(15, 10)
	pdf.CellFormat(180, 12, tr(doc.Event.Name), "", 1, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(15, 42)

	line := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(35, 8, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, tr(value), "", 1, "L", false, 0, "")
		pdf.SetX(15)
	}

	when := "TBA"
	if doc.Event.StartsAt != nil {
		when = doc.Event.StartsAt.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
	}
	where := "TBA"
	if doc.Event.Location != nil && *doc.Event.Location != "" {
		where = *doc.Event.Location
	}
	tierName := fmt.Sprintf("Tier #%d", doc.Ticket.TierID)
	if doc.Tier != nil {
		tierName = doc.Tier.Name
	}

	line("Date", when)
	line("Location", where)
	line("Ticket", tierName)
	line("Quantity", strconv.Itoa(doc.Ticket.Quantity))
	line("Attendee", doc.Ticket.CustomerName)
	line("Total", doc.Ticket.TotalPrice.StringFixed(2))
	if doc.Event.LogoURL != nil && *doc.Event.LogoURL != "" {
		line("Organizer", *doc.Event.LogoURL)
	}

	imageName := "qr-" + doc.Ticket.TicketID.String()
	pdf.RegisterImageOptionsReader(imageName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	pdf.ImageOptions(imageName, 55, 120, 100, 100, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	pdf.SetXY(15, 225)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(180, 6, doc.Ticket.TicketID.String(), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render ticket pdf: %w", err)
	}
	return buf.Bytes(), nil
}
