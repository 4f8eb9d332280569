package documents

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/medcenter/clinic-api/models"
)

// LabReportFilename is the download name of a lab report PDF
func LabReportFilename(staffID string, appointmentNumber int) string {
	return fmt.Sprintf("Lab_Report_%s_%d.pdf", staffID, appointmentNumber)
}

// LabReportPDF renders the lab results of a completed appointment. signature is
// the completing doctor's data URI and may be empty.
func LabReportPDF(appt *models.Appointment, signature string, generated time.Time) ([]byte, error) {
	p := newPage("Laboratory Report")

	if appt.User != nil {
		p.detail("Patient", appt.User.Name)
		p.detail("ID Number", deref(appt.User.StaffID))
	}
	p.detail("Appointment No.", fmt.Sprintf("%d", appt.AppointmentNumber))
	p.detail("Appointment Date", appt.AppointmentDate+" "+appt.AppointmentTime)
	p.detail("Completed At", formatTime(appt.CompletedAt))

	p.section("Clinical Notes", deref(appt.MedicalNotes))
	p.section("Laboratory Results", deref(appt.LabReports))

	p.pdf.Ln(10)
	if signature != "" {
		if err := p.signature(signature); err != nil {
			return nil, err
		}
	}
	doctor := "Attending Physician"
	if appt.Completer != nil {
		doctor = "Dr. " + appt.Completer.Name
	}
	p.pdf.SetFont("Arial", "", 10)
	p.pdf.CellFormat(70, 6, p.tr(doctor), "T", 1, "C", false, 0, "")

	p.footer(generated)
	return p.bytes()
}

// CheckSignature reports whether dataURI is an image the lab report can embed
func CheckSignature(dataURI string) error {
	imageType, data, err := decodeDataURI(dataURI)
	if err != nil {
		return err
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.RegisterImageOptionsReader("signature", gofpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(data))
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("invalid signature image: %w", err)
	}
	return nil
}

func (p *page) signature(dataURI string) error {
	imageType, data, err := decodeDataURI(dataURI)
	if err != nil {
		return err
	}
	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	p.pdf.RegisterImageOptionsReader("signature", opts, bytes.NewReader(data))
	if err := p.pdf.Error(); err != nil {
		return fmt.Errorf("invalid signature image: %w", err)
	}
	p.pdf.ImageOptions("signature", p.pdf.GetX()+10, p.pdf.GetY(), 50, 0, true, opts, 0, "")
	return nil
}

// decodeDataURI splits "data:image/png;base64,..." into a gofpdf image type and raw bytes
func decodeDataURI(uri string) (string, []byte, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return "", nil, fmt.Errorf("signature is not a base64 image data URI")
	}

	var imageType string
	switch strings.TrimSuffix(strings.TrimPrefix(header, "data:image/"), ";base64") {
	case "png":
		imageType = "PNG"
	case "jpeg", "jpg":
		imageType = "JPG"
	case "gif":
		imageType = "GIF"
	default:
		return "", nil, fmt.Errorf("unsupported signature image type %q", header)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("signature is not valid base64: %w", err)
	}
	return imageType, data, nil
}
