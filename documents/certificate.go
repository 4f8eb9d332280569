package documents

import (
	"fmt"
	"time"

	"github.com/medcenter/clinic-api/models"
)

// CertificateFilename is the download name of a certificate PDF
func CertificateFilename(id int64) string {
	return fmt.Sprintf("medical_certificate_%d.pdf", id)
}

// CertificatePDF renders an approved certificate
func CertificatePDF(cert *models.MedicalCertificate, generated time.Time) ([]byte, error) {
	p := newPage("Medical Certificate")

	patient, idNumber := "-", "-"
	if cert.User != nil {
		patient = cert.User.Name
		idNumber = deref(cert.User.StaffID)
	}
	doctor := "-"
	if cert.Doctor != nil {
		doctor = "Dr. " + cert.Doctor.Name
	}

	p.detail("Certificate No.", fmt.Sprintf("MC-%06d", cert.ID))
	p.detail("Patient", patient)
	p.detail("ID Number", idNumber)
	p.detail("Period", fmt.Sprintf("%s to %s", cert.StartDate, cert.EndDate))
	p.detail("Days", fmt.Sprintf("%d", cert.DaysRequested))

	p.section("Certification", fmt.Sprintf(
		"This is to certify that %s has been examined at the %s and is medically unfit for duty from %s to %s inclusive (%d day(s)).",
		patient, clinicName, cert.StartDate, cert.EndDate, cert.DaysRequested,
	))
	p.section("Reason", cert.Reason)
	if cert.DoctorNotes != nil && *cert.DoctorNotes != "" {
		p.section("Doctor's Notes", *cert.DoctorNotes)
	}

	p.pdf.Ln(8)
	p.detail("Approved By", doctor)
	p.detail("Approved At", formatTime(cert.ApprovedAt))

	p.footer(generated)
	return p.bytes()
}
