package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/config"
	"rollcall/internal/errs"
	"rollcall/internal/face"
	"rollcall/internal/otp"
	"rollcall/internal/queue"
	"rollcall/internal/student"
)

// Handler wires the services to the HTTP surface.
type Handler struct {
	students   *student.Service
	attendance *attendance.Service
	otp        *otp.Manager
	q          queue.Queue
	cfg        config.App
}

// New creates a handler.
func New(students *student.Service, att *attendance.Service, otpMgr *otp.Manager, q queue.Queue, cfg config.App) *Handler {
	return &Handler{students: students, attendance: att, otp: otpMgr, q: q, cfg: cfg}
}

// Register mounts all routes on the engine.
func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/health", h.Health)

	api.POST("/otp/send", h.SendOTP)
	api.POST("/otp/verify", h.VerifyOTP)

	api.GET("/students", h.ListStudents)
	api.POST("/students", h.RegisterStudent)
	api.DELETE("/students/:id",
		auth.AdminOnly(h.cfg.JWTSigningKey, h.cfg.JWTIssuer, h.cfg.AdminPassword != ""),
		h.DeleteStudent)

	api.GET("/attendance", h.ListAttendance)
	api.POST("/attendance", h.MarkAttendance)

	api.POST("/auth/login", h.Login)
}

// Health reports liveness and which store backend is active.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "backend": h.cfg.DBDriver})
}

type sendOTPRequest struct {
	MobileNumber string `json:"mobileNumber"`
}

// SendOTP issues a one-time code for a mobile number. The code is returned
// directly (demo mode) and handed to the notifier queue for logging; no
// real SMS gateway exists.
func (h *Handler) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	code, err := h.otp.Issue(c.Request.Context(), req.MobileNumber)
	if err != nil {
		h.writeErr(c, err)
		return
	}

	if h.q != nil {
		body, _ := json.Marshal(queue.OTPNotification{MobileNumber: req.MobileNumber, Code: code})
		if err := h.q.Publish(c.Request.Context(), queue.Message{Type: "otp", Body: body}); err != nil {
			log.Printf("queue publish failed: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "OTP sent successfully",
		"demo_otp": code,
	})
}

type verifyOTPRequest struct {
	MobileNumber string `json:"mobileNumber"`
	OTP          string `json:"otp"`
}

// VerifyOTP consumes a one-time code.
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.otp.Verify(c.Request.Context(), req.MobileNumber, req.OTP); err != nil {
		h.writeErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "OTP verified successfully",
		"verified": true,
	})
}

// ListStudents returns all students, or a single student when the email
// query parameter is given.
func (h *Handler) ListStudents(c *gin.Context) {
	if email := c.Query("email"); email != "" {
		st, err := h.students.FindByEmail(c.Request.Context(), email)
		if err != nil {
			h.writeErr(c, err)
			return
		}
		if st == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
			return
		}
		c.JSON(http.StatusOK, st)
		return
	}

	students, err := h.students.List(c.Request.Context())
	if err != nil {
		h.writeErr(c, err)
		return
	}
	if students == nil {
		students = []student.Student{}
	}
	c.JSON(http.StatusOK, students)
}

type registerRequest struct {
	FirstName    string          `json:"firstName"`
	LastName     string          `json:"lastName"`
	MobileNumber string          `json:"mobileNumber"`
	DOB          string          `json:"dob"`
	RollNo       string          `json:"rollNo"`
	Email        string          `json:"email"`
	Course       string          `json:"course"`
	Photo        string          `json:"photo"`
	Descriptor   face.Descriptor `json:"descriptor"`
	// LegacyID is the generic id some older clients send instead of rollNo.
	LegacyID string `json:"id"`
}

// RegisterStudent admits a new student after the integrity checks pass.
func (h *Handler) RegisterStudent(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rollNo := req.RollNo
	if rollNo == "" {
		rollNo = req.LegacyID
	}

	st := &student.Student{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		MobileNumber: req.MobileNumber,
		DOB:          req.DOB,
		RollNo:       rollNo,
		Email:        req.Email,
		Course:       req.Course,
		Photo:        req.Photo,
		Descriptor:   req.Descriptor,
	}

	id, err := h.students.Register(c.Request.Context(), st)
	if err != nil {
		h.writeErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      id,
		"message": "Student registered successfully",
	})
}

// DeleteStudent removes a student and their attendance records.
func (h *Handler) DeleteStudent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return
	}

	if err := h.students.Delete(c.Request.Context(), id); err != nil {
		h.writeErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Student deleted successfully"})
}

// ListAttendance returns records for the date query parameter (MM/DD/YYYY),
// defaulting to today.
func (h *Handler) ListAttendance(c *gin.Context) {
	records, err := h.attendance.List(c.Request.Context(), c.Query("date"))
	if err != nil {
		h.writeErr(c, err)
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	c.JSON(http.StatusOK, records)
}

type markAttendanceRequest struct {
	StudentID  int64    `json:"studentId"`
	Status     string   `json:"status"`
	Confidence *float64 `json:"confidence"`
}

// MarkAttendance records today's presence for a student. A repeat mark on
// the same day is acknowledged, not duplicated.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var req markAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rec, already, err := h.attendance.Mark(c.Request.Context(), req.StudentID, req.Status, req.Confidence)
	if err != nil {
		h.writeErr(c, err)
		return
	}

	if already {
		c.JSON(http.StatusOK, gin.H{"message": "Attendance already marked"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      rec.ID,
		"message": "Attendance marked successfully",
	})
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login exchanges the admin password for a bearer token guarding
// destructive routes.
func (h *Handler) Login(c *gin.Context) {
	if h.cfg.AdminPassword == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin login not configured"})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password != h.cfg.AdminPassword {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, exp, err := auth.Issue(h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": exp.Unix()})
}

// writeErr maps the error taxonomy onto HTTP statuses and the JSON shapes
// clients expect.
func (h *Handler) writeErr(c *gin.Context, err error) {
	var dup *errs.DuplicateError
	if errors.As(err, &dup) {
		payload := gin.H{
			"error":     dup.Message,
			"duplicate": true,
			"field":     dup.Field,
		}
		if dup.Existing != nil {
			payload["existingStudent"] = dup.Existing
		}
		c.JSON(http.StatusBadRequest, payload)
		return
	}

	var validation *errs.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message})
		return
	}

	switch {
	case errors.Is(err, errs.ErrStudentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
	case errors.Is(err, errs.ErrOTPNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "OTP not found or expired"})
	case errors.Is(err, errs.ErrOTPExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "OTP has expired"})
	case errors.Is(err, errs.ErrInvalidOTP):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OTP"})
	case errors.Is(err, errs.ErrDuplicateEntry):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Duplicate entry detected"})
	case errors.Is(err, context.Canceled):
		c.Status(http.StatusBadRequest)
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
