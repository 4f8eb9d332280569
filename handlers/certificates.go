package handlers

import (
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/medcenter/clinic-api/apperrors"
	"github.com/medcenter/clinic-api/documents"
	"github.com/medcenter/clinic-api/middleware"
	"github.com/medcenter/clinic-api/models"
	"github.com/medcenter/clinic-api/storage"
	"github.com/rs/zerolog/log"
)

const maxDocumentSize = 5 * 1024 * 1024

var documentTypes = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".pdf": true}

// ListCertificates lists certificates visible to the caller
func (h *Handler) ListCertificates(c *fiber.Ctx) error {
	var filter models.CertificateFilter
	switch middleware.CurrentRole(c) {
	case models.RoleDoctor:
		filter.PendingOrDoctor = middleware.CurrentUserID(c)
	case models.RoleAdmin:
		from, err := dateQuery(c, "start_date")
		if err != nil {
			return err
		}
		to, err := dateQuery(c, "end_date")
		if err != nil {
			return err
		}
		filter.Status = c.Query("status")
		filter.UserType = c.Query("user_type")
		filter.CreatedFrom = from
		filter.CreatedTo = to
		filter.Search = strings.TrimSpace(c.Query("search"))
	default:
		filter.UserID = middleware.CurrentUserID(c)
	}

	certs, err := h.certificates.ListCertificates(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"certificates": certs})
}

// CreateCertificate files a certificate request with an optional supporting document
func (h *Handler) CreateCertificate(c *fiber.Ctx) error {
	var req models.CreateCertificateRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	days, err := models.DaysBetween(req.StartDate, req.EndDate)
	if err != nil {
		return fieldError("start_date", "The start date is not a valid date.")
	}
	if days < 1 {
		return fieldError("end_date", "The end date must be a date after or equal to start date.")
	}

	ctx := c.UserContext()
	cert := &models.MedicalCertificate{
		UserID:        middleware.CurrentUserID(c),
		Reason:        strings.TrimSpace(req.Reason),
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		DaysRequested: days,
		Status:        models.CertificatePending,
	}
	if req.AppointmentID > 0 {
		_, err := h.appointments.GetAppointment(ctx, req.AppointmentID)
		if apperrors.IsNotFound(err) {
			return fieldError("appointment_id", "The selected appointment id is invalid.")
		}
		if err != nil {
			return err
		}
		cert.AppointmentID = &req.AppointmentID
	}

	key, err := h.storeDocument(c)
	if err != nil {
		return err
	}
	if key != "" {
		cert.DocumentPath = &key
	}

	if err := h.certificates.CreateCertificate(ctx, cert); err != nil {
		if key != "" {
			if derr := h.files.Delete(ctx, key); derr != nil {
				log.Warn().Err(derr).Str("key", key).Msg("failed to remove orphaned document")
			}
		}
		return err
	}

	return ok(c, fiber.StatusCreated, fiber.Map{
		"message":     "Medical certificate request submitted successfully",
		"certificate": cert,
	})
}

// storeDocument saves the optional "document" upload and returns its storage key
func (h *Handler) storeDocument(c *fiber.Ctx) (string, error) {
	fh, err := c.FormFile("document")
	if err != nil {
		return "", nil
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !documentTypes[ext] {
		return "", fieldError("document", "The document must be a file of type: jpg, jpeg, png, pdf.")
	}
	if fh.Size > maxDocumentSize {
		return "", fieldError("document", "The document may not be greater than 5120 kilobytes.")
	}

	f, err := fh.Open()
	if err != nil {
		return "", apperrors.NewInternalError("failed to open upload", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", apperrors.NewInternalError("failed to read upload", err)
	}

	key := path.Join("medical_certificates", uuid.NewString()+ext)
	if err := h.files.Put(c.UserContext(), key, data, fh.Header.Get(fiber.HeaderContentType)); err != nil {
		return "", apperrors.NewExternalError("failed to store document", err)
	}
	return key, nil
}

func (h *Handler) loadCertificate(c *fiber.Ctx) (*models.MedicalCertificate, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	cert, err := h.certificates.GetCertificate(c.UserContext(), id)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.NewNotFoundError("Medical certificate not found")
	}
	if err != nil {
		return nil, err
	}

	role := middleware.CurrentRole(c)
	if role != models.RoleAdmin && role != models.RoleDoctor && cert.UserID != middleware.CurrentUserID(c) {
		return nil, apperrors.NewForbiddenError("Unauthorized to view this certificate")
	}
	return cert, nil
}

// GetCertificate returns one certificate
func (h *Handler) GetCertificate(c *fiber.Ctx) error {
	cert, err := h.loadCertificate(c)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"certificate": cert})
}

func (h *Handler) decide(c *fiber.Ctx, apply func(*models.MedicalCertificate)) (*models.MedicalCertificate, error) {
	cert, err := h.loadCertificate(c)
	if err != nil {
		return nil, err
	}
	if cert.Status != models.CertificatePending {
		return nil, apperrors.NewBadRequestError("This certificate has already been processed")
	}

	doctorID := middleware.CurrentUserID(c)
	cert.DoctorID = &doctorID
	apply(cert)

	if err := h.certificates.UpdateCertificateDecision(c.UserContext(), cert); err != nil {
		return nil, err
	}
	return cert, nil
}

// ApproveCertificate grants a pending certificate
func (h *Handler) ApproveCertificate(c *fiber.Ctx) error {
	var req models.ApproveCertificateRequest
	if err := bindOptional(c, &req); err != nil {
		return err
	}
	cert, err := h.decide(c, func(m *models.MedicalCertificate) {
		now := h.now()
		m.Status = models.CertificateApproved
		m.DoctorNotes = optional(req.DoctorNotes)
		m.ApprovedAt = &now
	})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"message":     "Medical certificate approved successfully",
		"certificate": cert,
	})
}

// RejectCertificate declines a pending certificate
func (h *Handler) RejectCertificate(c *fiber.Ctx) error {
	var req models.RejectCertificateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cert, err := h.decide(c, func(m *models.MedicalCertificate) {
		m.Status = models.CertificateRejected
		m.RejectionReason = optional(req.RejectionReason)
		m.DoctorNotes = optional(req.DoctorNotes)
	})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"message":     "Medical certificate rejected",
		"certificate": cert,
	})
}

// DownloadCertificate renders an approved certificate as PDF
func (h *Handler) DownloadCertificate(c *fiber.Ctx) error {
	cert, err := h.loadCertificate(c)
	if err != nil {
		return err
	}
	if cert.Status != models.CertificateApproved {
		return apperrors.NewBadRequestError("Only approved certificates can be downloaded")
	}

	pdf, err := documents.CertificatePDF(cert, h.now())
	if err != nil {
		return apperrors.NewInternalError("failed to render certificate", err)
	}
	return sendFile(c, documents.CertificateFilename(cert.ID), "application/pdf", pdf)
}

// CertificateDocument streams the uploaded supporting document
func (h *Handler) CertificateDocument(c *fiber.Ctx) error {
	cert, err := h.loadCertificate(c)
	if err != nil {
		return err
	}
	if !cert.HasDocument() {
		return apperrors.NewNotFoundError("No document attached to this certificate")
	}

	data, err := h.files.Get(c.UserContext(), *cert.DocumentPath)
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.NewNotFoundError("Document file not found")
	}
	if err != nil {
		return apperrors.NewExternalError("failed to read document", err)
	}

	c.Attachment(path.Base(*cert.DocumentPath))
	return c.Status(fiber.StatusOK).Send(data)
}

// CertificateStats counts certificates by status
func (h *Handler) CertificateStats(c *fiber.Ctx) error {
	stats, err := h.certificates.CertificateStats(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"stats": stats})
}
