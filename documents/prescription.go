package documents

import (
	"fmt"
	"strings"
	"time"

	"github.com/medcenter/clinic-api/models"
)

// PrescriptionFilename is the download name of a prescription PDF
func PrescriptionFilename(id int64) string {
	return fmt.Sprintf("Prescription_%d.pdf", id)
}

// PrescriptionPDF renders rx. Patient and Doctor should be populated.
func PrescriptionPDF(rx *models.Prescription, generated time.Time) ([]byte, error) {
	p := newPage("Prescription")

	p.detail("Prescription No.", fmt.Sprintf("%d", rx.ID))
	p.detail("Date", rx.CreatedAt.Format(models.DateLayout))
	if rx.AppointmentNumber != nil {
		p.detail("Appointment No.", fmt.Sprintf("%d", *rx.AppointmentNumber))
	}
	if rx.Patient != nil {
		p.detail("Patient", rx.Patient.Name)
		p.detail("ID Number", deref(rx.Patient.StaffID))
	}
	if rx.Doctor != nil {
		p.detail("Prescribed By", "Dr. "+rx.Doctor.Name)
	}
	p.detail("Status", strings.ToUpper(rx.Status))

	p.section("Diagnosis", rx.Diagnosis)
	p.section("Medications", rx.Medications)
	p.section("Instructions", deref(rx.Instructions))

	if rx.DispensedAt != nil {
		dispenser := "-"
		if rx.Dispenser != nil {
			dispenser = rx.Dispenser.Name
		}
		p.pdf.Ln(4)
		p.detail("Dispensed By", dispenser)
		p.detail("Dispensed At", formatTime(rx.DispensedAt))
	}

	p.footer(generated)
	return p.bytes()
}
