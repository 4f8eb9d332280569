package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/medcenter/clinic-api/apperrors"
	"github.com/medcenter/clinic-api/documents"
	"github.com/medcenter/clinic-api/middleware"
	"github.com/medcenter/clinic-api/models"
)

// ListPrescriptions lists prescriptions, newest first
func (h *Handler) ListPrescriptions(c *fiber.Ctx) error {
	date, err := dateQuery(c, "date")
	if err != nil {
		return err
	}
	filter := models.PrescriptionFilter{Status: c.Query("status"), CreatedOn: date}
	if models.IsPatientRole(middleware.CurrentRole(c)) {
		filter.PatientID = middleware.CurrentUserID(c)
	}

	list, err := h.prescriptions.ListPrescriptions(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"prescriptions": list})
}

func (h *Handler) loadPrescription(c *fiber.Ctx) (*models.Prescription, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	rx, err := h.prescriptions.GetPrescription(c.UserContext(), id)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.NewNotFoundError("Prescription not found")
	}
	if err != nil {
		return nil, err
	}
	if models.IsPatientRole(middleware.CurrentRole(c)) && rx.PatientID != middleware.CurrentUserID(c) {
		return nil, apperrors.NewForbiddenError("Unauthorized to view this prescription")
	}
	return rx, nil
}

// GetPrescription returns one prescription
func (h *Handler) GetPrescription(c *fiber.Ctx) error {
	rx, err := h.loadPrescription(c)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"prescription": rx})
}

// CreatePrescription issues a prescription for an appointment's patient
func (h *Handler) CreatePrescription(c *fiber.Ctx) error {
	var req models.CreatePrescriptionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.UserContext()
	appt, err := h.appointments.GetAppointment(ctx, req.AppointmentID)
	if apperrors.IsNotFound(err) {
		return fieldError("appointment_id", "The selected appointment id is invalid.")
	}
	if err != nil {
		return err
	}

	rx := &models.Prescription{
		AppointmentID: appt.ID,
		PatientID:     appt.UserID,
		DoctorID:      middleware.CurrentUserID(c),
		Diagnosis:     strings.TrimSpace(req.Diagnosis),
		Medications:   req.Medications,
		Instructions:  optional(req.Instructions),
		Status:        models.PrescriptionPending,
	}
	if err := h.prescriptions.CreatePrescription(ctx, rx); err != nil {
		return err
	}
	created, err := h.prescriptions.GetPrescription(ctx, rx.ID)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusCreated, fiber.Map{
		"message":      "Prescription created successfully",
		"prescription": created,
	})
}

// DispensePrescription records that a pharmacist handed out a pending prescription
func (h *Handler) DispensePrescription(c *fiber.Ctx) error {
	rx, err := h.loadPrescription(c)
	if err != nil {
		return err
	}
	if rx.Status != models.PrescriptionPending {
		return apperrors.NewBadRequestError("Prescription already dispensed")
	}

	pharmacistID := middleware.CurrentUserID(c)
	now := h.now()
	rx.Status = models.PrescriptionDispensed
	rx.DispensedBy = &pharmacistID
	rx.DispensedAt = &now

	if err := h.prescriptions.UpdatePrescriptionStatus(c.UserContext(), rx); err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"message":      "Prescription dispensed successfully",
		"prescription": rx,
	})
}

// CompletePrescription closes a prescription
func (h *Handler) CompletePrescription(c *fiber.Ctx) error {
	rx, err := h.loadPrescription(c)
	if err != nil {
		return err
	}
	if rx.Status == models.PrescriptionCompleted {
		return apperrors.NewBadRequestError("Prescription already completed")
	}

	rx.Status = models.PrescriptionCompleted
	if rx.DispensedAt == nil {
		now := h.now()
		rx.DispensedAt = &now
	}
	if rx.DispensedBy == nil {
		pharmacistID := middleware.CurrentUserID(c)
		rx.DispensedBy = &pharmacistID
	}

	if err := h.prescriptions.UpdatePrescriptionStatus(c.UserContext(), rx); err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"message":      "Prescription marked as completed",
		"prescription": rx,
	})
}

// PatientPrescriptions lists prescriptions for the patient holding staffId
func (h *Handler) PatientPrescriptions(c *fiber.Ctx) error {
	ctx := c.UserContext()
	patient, err := h.users.FindPatientByStaffID(ctx, c.Params("staffId"))
	if apperrors.IsNotFound(err) {
		return apperrors.NewNotFoundError("Patient not found")
	}
	if err != nil {
		return err
	}

	list, err := h.prescriptions.ListPrescriptions(ctx, models.PrescriptionFilter{PatientID: patient.ID})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"patient":       newUserResponse(patient),
		"prescriptions": list,
	})
}

// PendingToday lists today's undispensed prescriptions, oldest first
func (h *Handler) PendingToday(c *fiber.Ctx) error {
	list, err := h.prescriptions.ListPrescriptions(c.UserContext(), models.PrescriptionFilter{
		Status:    models.PrescriptionPending,
		CreatedOn: h.today(),
		Ascending: true,
	})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"prescriptions": list, "total": len(list)})
}

// MyPrescriptions lists the current patient's prescriptions
func (h *Handler) MyPrescriptions(c *fiber.Ctx) error {
	list, err := h.prescriptions.ListPrescriptions(c.UserContext(), models.PrescriptionFilter{
		PatientID: middleware.CurrentUserID(c),
	})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"prescriptions": list})
}

// DownloadPrescription renders a prescription as PDF
func (h *Handler) DownloadPrescription(c *fiber.Ctx) error {
	rx, err := h.loadPrescription(c)
	if err != nil {
		return err
	}
	pdf, err := documents.PrescriptionPDF(rx, h.now())
	if err != nil {
		return apperrors.NewInternalError("failed to render prescription", err)
	}
	return sendFile(c, documents.PrescriptionFilename(rx.ID), "application/pdf", pdf)
}

func sendFile(c *fiber.Ctx, filename, contentType string, data []byte) error {
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, contentType)
	return c.Status(fiber.StatusOK).Send(data)
}
