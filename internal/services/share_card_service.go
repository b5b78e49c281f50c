package services

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/imageshare/backend/internal/config"
	"github.com/imageshare/backend/internal/models"
	"github.com/imageshare/backend/pkg/validation"
	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// ShareCardService renders a printable A4 card for an image: metadata, the
// picture itself and a QR code linking back to the details page.
type ShareCardService struct {
	cfg *config.Config
}

func NewShareCardService(cfg *config.Config) *ShareCardService { return &ShareCardService{cfg: cfg} }

// DetailsURL returns the absolute details page URL of an image.
func (s *ShareCardService) DetailsURL(id uint) string {
	return fmt.Sprintf("%s/Images/Details/%d", s.cfg.AppURL, id)
}

// Render builds the PDF. image must have User and Tag loaded; data holds the
// stored file and is left out of the card unless it is a JPEG or PNG.
func (s *ShareCardService) Render(image *models.Image, data []byte) ([]byte, error) {
	detailsURL := s.DetailsURL(image.ID)

	png, err := qrcode.Encode(detailsURL, qrcode.Medium, 512)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, image.Caption)
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 12)

	tagName, owner := "", ""
	if image.Tag != nil {
		tagName = image.Tag.Name
	}
	if image.User != nil {
		owner = image.User.Username
	}
	pdf.MultiCell(0, 6, fmt.Sprintf("Tag: %s\nBy: %s\nTaken: %s\n\n%s",
		tagName, owner, image.DateTaken.Format(validation.DateLayout), image.Description), "", "L", false)

	y := pdf.GetY() + 6
	if imageType := pdfImageType(data); imageType != "" {
		opt := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
		pdf.RegisterImageOptionsReader("photo", opt, bytes.NewReader(data))
		// Fit into a 150mm wide box, height follows the aspect ratio
		pdf.ImageOptions("photo", 30, y, 150, 0, false, opt, 0, "")
		if info := pdf.GetImageInfo("photo"); info != nil && info.Width() > 0 {
			y += 150 * info.Height() / info.Width()
		}
		y += 6
	}

	qrOpt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("qr", qrOpt, bytes.NewReader(png))
	pdf.ImageOptions("qr", (210.0-50.0)/2.0, y, 50, 50, false, qrOpt, 0, "")
	pdf.SetY(y + 52)
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, detailsURL, "", 0, "C", false, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// pdfImageType maps decodable content to a gofpdf image type. Every file is
// stored as .jpg whatever was uploaded, so only the bytes count.
func pdfImageType(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	switch format {
	case "jpeg":
		return "JPG"
	case "png":
		return "PNG"
	default:
		return ""
	}
}
