package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"concierge/internal/logger"
	"concierge/internal/models"
	"concierge/internal/nlp"
)

type DBLayer interface {
	GetLatestOpenBySession(ctx context.Context, sessionID string) (*models.Booking, error)
	Create(ctx context.Context, sessionID string) (*models.Booking, error)
	Save(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListRecent(ctx context.Context, limit int) ([]models.Booking, error)
}

type EventPublisher interface {
	PublishBookingUpdated(booking models.Booking) error
	PublishBookingConfirmed(booking models.Booking) error
	PublishBookingCancelled(booking models.Booking) error
}

// MissingFieldsError reports a confirm attempt on a draft that still
// lacks required fields. Not fatal: the draft stays open.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "booking missing required fields: " + strings.Join(e.Fields, ", ")
}

// Service merges extracted entities into the session's draft and drives
// the confirm/cancel lifecycle.
type Service struct {
	DB        DBLayer
	Events    EventPublisher
	Extractor *nlp.Extractor
	Logger    *logger.Logger
}

func NewService(db DBLayer, events EventPublisher, extractor *nlp.Extractor, log *logger.Logger) *Service {
	return &Service{DB: db, Events: events, Extractor: extractor, Logger: log}
}

// MissingFields lists the required fields a draft still lacks, in prompt
// order: name, dates, number of guests.
func MissingFields(b *models.Booking) []string {
	var missing []string
	if b.GuestName == nil || *b.GuestName == "" {
		missing = append(missing, "name")
	}
	if !(b.CheckIn != nil && (b.CheckOut != nil || b.Nights != nil)) {
		missing = append(missing, "dates")
	}
	if b.Guests == nil {
		missing = append(missing, "number of guests")
	}
	return missing
}

// HandleMessage processes one conversational turn: resolve the active
// draft, extract and merge fields, classify intent and pick the reply.
func (s *Service) HandleMessage(ctx context.Context, sessionID, text string) (*models.MessageResponse, error) {
	text = strings.TrimSpace(text)

	booking, err := s.DB.GetLatestOpenBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("lookup draft for session %s: %w", sessionID, err)
	}
	if booking == nil {
		booking, err = s.DB.Create(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("create draft for session %s: %w", sessionID, err)
		}
		s.Logger.LogBooking("CREATE", booking.ID, "new draft for session "+sessionID)
	}

	// A name-shaped reply while the name is pending is assigned directly,
	// never run through the full extractor. Keeps the date and number
	// parsers from eating a bare "John Smith".
	missingNow := MissingFields(booking)
	var extracted nlp.Fields
	if contains(missingNow, "name") && text != "" && nlp.LooksLikeName(text) {
		name := text
		booking.GuestName = &name
	} else {
		extracted = s.Extractor.Extract(text)
	}

	intent := nlp.Classify(text)
	s.Logger.LogTurn(sessionID, string(intent), text)
	changed := merge(booking, extracted)

	if err := s.DB.Save(ctx, booking); err != nil {
		return nil, fmt.Errorf("save draft %s: %w", booking.ID, err)
	}

	switch intent {
	case nlp.IntentConfirm:
		return s.handleConfirm(ctx, booking)
	case nlp.IntentCancel:
		return s.handleCancel(ctx, booking)
	default:
		return s.handleUpdate(ctx, booking, changed)
	}
}

func (s *Service) handleConfirm(ctx context.Context, booking *models.Booking) (*models.MessageResponse, error) {
	missing := MissingFields(booking)
	if len(missing) > 0 {
		reply := fmt.Sprintf("I need a few more details before I can confirm: %s. Could you provide them?",
			strings.Join(missing, ", "))
		return &models.MessageResponse{Reply: reply, Booking: booking, AllRequiredPresent: false}, nil
	}

	booking.State = models.StateConfirmed
	booking.Confirmed = true
	booking.AppendNote("Confirmed at " + time.Now().UTC().Format(time.RFC3339))
	if err := s.DB.Save(ctx, booking); err != nil {
		return nil, fmt.Errorf("save confirmed draft %s: %w", booking.ID, err)
	}
	s.Logger.LogBooking("CONFIRM", booking.ID, "draft confirmed")

	if err := s.Events.PublishBookingConfirmed(*booking); err != nil {
		s.Logger.Error("EVENTS", fmt.Sprintf("publish confirmed event for %s: %v", booking.ID, err))
	}

	name := ""
	if booking.GuestName != nil {
		name = *booking.GuestName
	}
	reply := fmt.Sprintf("Thanks %s! Your booking is confirmed.", name)
	return &models.MessageResponse{Reply: reply, Booking: booking, AllRequiredPresent: true}, nil
}

func (s *Service) handleCancel(ctx context.Context, booking *models.Booking) (*models.MessageResponse, error) {
	// Cancel is terminal: the draft leaves the open-lookup path and the
	// next message for this session starts fresh.
	booking.State = models.StateCancelled
	booking.AppendNote("Cancelled by user at " + time.Now().UTC().Format(time.RFC3339))
	if err := s.DB.Save(ctx, booking); err != nil {
		return nil, fmt.Errorf("save cancelled draft %s: %w", booking.ID, err)
	}
	s.Logger.LogBooking("CANCEL", booking.ID, "draft cancelled")

	if err := s.Events.PublishBookingCancelled(*booking); err != nil {
		s.Logger.Error("EVENTS", fmt.Sprintf("publish cancelled event for %s: %v", booking.ID, err))
	}

	reply := "Okay — I have canceled the current booking draft. If you'd like to start again, say 'I want to book'."
	return &models.MessageResponse{Reply: reply, Booking: booking, AllRequiredPresent: false}, nil
}

func (s *Service) handleUpdate(ctx context.Context, booking *models.Booking, changed []string) (*models.MessageResponse, error) {
	if len(changed) > 0 {
		if err := s.Events.PublishBookingUpdated(*booking); err != nil {
			s.Logger.Error("EVENTS", fmt.Sprintf("publish updated event for %s: %v", booking.ID, err))
		}
	}

	var reply strings.Builder
	if len(changed) > 0 {
		pretty := make([]string, len(changed))
		for i, f := range changed {
			pretty[i] = strings.ReplaceAll(f, "_", " ")
		}
		reply.WriteString("Got it — I updated: " + strings.Join(pretty, ", ") + ". ")
	}

	missing := MissingFields(booking)
	if len(missing) == 0 {
		if contains(changed, "breakfast") || contains(changed, "payment_method") {
			reply.WriteString("Would you like to confirm this booking now? Reply 'confirm' to finish, or change breakfast/payment if needed.")
		} else {
			reply.WriteString("I have the full booking details. Would you like to add breakfast or a payment method before confirming? " +
				"Reply 'breakfast: Continental, American or English' or 'payment: card, cash, crypto etc', or reply 'confirm' to finish.")
		}
		return &models.MessageResponse{
			Reply:              strings.TrimSpace(reply.String()),
			Booking:            booking,
			AllRequiredPresent: true,
		}, nil
	}

	reply.WriteString("I still need " + strings.Join(missing, ", ") + ". " + followUpFor(missing[0]))
	return &models.MessageResponse{
		Reply:              strings.TrimSpace(reply.String()),
		Booking:            booking,
		AllRequiredPresent: false,
	}, nil
}

func followUpFor(field string) string {
	switch {
	case strings.Contains(field, "name"):
		return "What's the name for the reservation?"
	case strings.Contains(field, "dates"):
		return "When would you like to check in and check out? (e.g., 'June 10 to June 13' or 'next Monday for 3 nights')"
	case strings.Contains(field, "number of guests"):
		return "How many guests will stay?"
	default:
		return "Could you provide that?"
	}
}

// ConfirmByID confirms an already-complete draft out of band, bypassing
// the dialogue flow. Unknown ids and incomplete drafts are errors; no
// draft is ever created here.
func (s *Service) ConfirmByID(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.DB.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.GuestName == nil || booking.CheckIn == nil || booking.Guests == nil {
		return booking, &MissingFieldsError{Fields: MissingFields(booking)}
	}

	booking.State = models.StateConfirmed
	booking.Confirmed = true
	booking.AppendNote("Confirmed at " + time.Now().UTC().Format(time.RFC3339))
	if err := s.DB.Save(ctx, booking); err != nil {
		return nil, fmt.Errorf("save confirmed booking %s: %w", booking.ID, err)
	}
	s.Logger.LogBooking("CONFIRM", booking.ID, "confirmed via direct access")

	if err := s.Events.PublishBookingConfirmed(*booking); err != nil {
		s.Logger.Error("EVENTS", fmt.Sprintf("publish confirmed event for %s: %v", booking.ID, err))
	}
	return booking, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return s.DB.GetByID(ctx, id)
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]models.Booking, error) {
	return s.DB.ListRecent(ctx, limit)
}

// merge copies every present extracted field onto the draft, overwriting
// field-by-field, and returns the names of the fields that changed.
func merge(b *models.Booking, f nlp.Fields) []string {
	var changed []string
	if f.Name != "" {
		name := f.Name
		b.GuestName = &name
		changed = append(changed, "guest_name")
	}
	if f.Guests > 0 {
		guests := f.Guests
		b.Guests = &guests
		changed = append(changed, "guests")
	}
	if f.CheckIn != nil {
		checkin := *f.CheckIn
		b.CheckIn = &checkin
		changed = append(changed, "checkin")
	}
	if f.CheckOut != nil {
		checkout := *f.CheckOut
		b.CheckOut = &checkout
		changed = append(changed, "checkout")
	}
	if f.Nights > 0 {
		nights := f.Nights
		b.Nights = &nights
		changed = append(changed, "nights")
	}
	if f.Breakfast != "" {
		breakfast := f.Breakfast
		b.Breakfast = &breakfast
		changed = append(changed, "breakfast")
	}
	if f.PaymentMethod != "" {
		payment := f.PaymentMethod
		b.PaymentMethod = &payment
		changed = append(changed, "payment_method")
	}
	return changed
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}
