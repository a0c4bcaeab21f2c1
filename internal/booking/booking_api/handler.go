package booking_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"concierge/internal/booking"
	"concierge/internal/booking/db"
	"concierge/internal/logger"
	"concierge/internal/models"
	"concierge/internal/qr"
	"concierge/internal/sessionlock"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	BookingService *booking.Service
	Locker         sessionlock.Locker
	QR             *qr.Generator
	Logger         *logger.Logger
}

func NewHandler(service *booking.Service, locker sessionlock.Locker, qrGen *qr.Generator, log *logger.Logger) *Handler {
	return &Handler{
		BookingService: service,
		Locker:         locker,
		QR:             qrGen,
		Logger:         log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/session", h.CreateSession)
	r.Post("/api/message", h.HandleMessage)
	r.Get("/api/bookings", h.ListBookings)
	r.Route("/api/booking/{bookingId}", func(r chi.Router) {
		r.Get("/", h.GetBooking)
		r.Post("/confirm", h.ConfirmBooking)
		r.Get("/qr", h.BookingQR)
	})
}

// CreateSession mints an opaque session token for a new conversation.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.NewString()
	h.Logger.Info("API", "CreateSession: "+sessionID)
	writeJSON(w, http.StatusOK, models.SessionResponse{SessionID: sessionID})
}

// HandleMessage runs one dialogue turn under the per-session lock.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("HandleMessage: failed to decode request body: %v", err))
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		h.Logger.Warn("API", "HandleMessage: missing session_id")
		writeError(w, http.StatusBadRequest, "session_id required")
		return
	}

	// One turn is pure computation plus one record read and one write;
	// bound it so a stuck lock cannot pin the connection.
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	token, err := h.Locker.Lock(ctx, req.SessionID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("HandleMessage: could not lock session %s: %v", req.SessionID, err))
		writeError(w, http.StatusConflict, "another turn for this session is in flight")
		return
	}
	defer func() {
		// Release on a fresh context: if the turn consumed the request
		// deadline the lock must still come off rather than linger to TTL.
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer releaseCancel()
		if err := h.Locker.Unlock(releaseCtx, req.SessionID, token); err != nil {
			h.Logger.Error("API", fmt.Sprintf("HandleMessage: unlock session %s: %v", req.SessionID, err))
		}
	}()

	resp, err := h.BookingService.HandleMessage(ctx, req.SessionID, req.Message)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("HandleMessage: turn failed for session %s: %v", req.SessionID, err))
		writeError(w, http.StatusInternalServerError, "could not process message")
		return
	}

	h.Logger.LogAPI(r.Method, r.URL.Path, "200", time.Since(start).String())
	writeJSON(w, http.StatusOK, resp)
}

// ConfirmBooking confirms an already-complete draft out of band.
func (h *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("ConfirmBooking: bookingId=%s", bookingID))

	confirmed, err := h.BookingService.ConfirmByID(r.Context(), bookingID)
	if err != nil {
		var missingErr *booking.MissingFieldsError
		switch {
		case errors.Is(err, db.ErrNotFound):
			writeError(w, http.StatusNotFound, "booking not found")
		case errors.As(err, &missingErr):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "Booking missing required fields",
				"booking": confirmed,
			})
		default:
			h.Logger.Error("API", fmt.Sprintf("ConfirmBooking: %v", err))
			writeError(w, http.StatusInternalServerError, "could not confirm booking")
		}
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{
		Reply:              "Booking confirmed. Thank you!",
		Booking:            confirmed,
		AllRequiredPresent: true,
	})
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	found, err := h.BookingService.GetByID(r.Context(), bookingID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		h.Logger.Error("API", fmt.Sprintf("GetBooking: %v", err))
		writeError(w, http.StatusInternalServerError, "could not fetch booking")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"booking": found})
}

const maxListLimit = 500

// ListBookings returns recent bookings, newest first. Admin view.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	bookings, err := h.BookingService.ListRecent(r.Context(), limit)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListBookings: %v", err))
		writeError(w, http.StatusInternalServerError, "could not list bookings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// BookingQR serves the encrypted confirmation QR for a confirmed booking.
func (h *Handler) BookingQR(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	found, err := h.BookingService.GetByID(r.Context(), bookingID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		h.Logger.Error("API", fmt.Sprintf("BookingQR: %v", err))
		writeError(w, http.StatusInternalServerError, "could not fetch booking")
		return
	}

	png, err := h.QR.ConfirmationQR(found)
	if err != nil {
		if errors.Is(err, qr.ErrNotConfirmed) {
			writeError(w, http.StatusBadRequest, "booking is not confirmed")
			return
		}
		h.Logger.Error("API", fmt.Sprintf("BookingQR: %v", err))
		writeError(w, http.StatusInternalServerError, "could not generate QR")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		h.Logger.Error("API", fmt.Sprintf("BookingQR: failed to write response: %v", err))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
